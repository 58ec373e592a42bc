package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "plant-shop context key " + string(c)
}

const (
	// UserIDKey is the key for the authenticated user's ID in context.Context
	UserIDKey = contextKey("userID")
	// UserEmailKey is the key for the authenticated user's email in context.Context
	UserEmailKey = contextKey("userEmail")
	// RequestIDKey is the key for the request ID set by the requestid middleware
	RequestIDKey = contextKey("requestID")
	// CollectionKey is the key for the document collection a request operates on
	CollectionKey = contextKey("collection")
	// ComponentKey is the key for the component name used in log entries
	ComponentKey = contextKey("component")
	// OperationKey is the key for the operation name used in log entries
	OperationKey = contextKey("operation")
)
