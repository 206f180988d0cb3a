// Package api is the HTTP layer. It holds the request and response models
// with their validation tags, the auth and todo handlers, and the mapping
// from service errors to response status codes. Handlers stay thin and
// delegate all business behavior to the service layer.
package api
