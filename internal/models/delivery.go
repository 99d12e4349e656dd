package models

// Delivery is a verified webhook payload handed over to the forwarder.
type Delivery struct {
	// ID is the GitHub delivery GUID, or a generated one when the header is absent.
	ID string
	// Event is the GitHub event type, e.g. "push".
	Event string
	// Body is the raw payload exactly as received and verified.
	Body []byte
}
