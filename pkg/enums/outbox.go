package enums

import "fmt"

// OutboxEventType is the canonical event_type emitted through the outbox.
type OutboxEventType string

const (
	OutboxEventListingSubmitted OutboxEventType = "listing.submitted"
	OutboxEventListingVerified  OutboxEventType = "listing.verified"
	OutboxEventListingRejected  OutboxEventType = "listing.rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventListingSubmitted,
	OutboxEventListingVerified,
	OutboxEventListingRejected,
}

// IsValid reports whether the value matches the canonical outbox event type enum.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts the raw string to OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateListing OutboxAggregateType = "listing"
)

// IsValid reports whether the value matches the canonical aggregate type enum.
func (o OutboxAggregateType) IsValid() bool {
	return o == OutboxAggregateListing
}
