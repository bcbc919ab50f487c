package entity

import "time"

type LifecycleAction string

const (
	ActionCreate       LifecycleAction = "create"
	ActionPublish      LifecycleAction = "publish"
	ActionSuspend      LifecycleAction = "suspend"
	ActionReinstate    LifecycleAction = "reinstate"
	ActionExpire       LifecycleAction = "expire"
	ActionMarkSold     LifecycleAction = "mark_sold"
	ActionSoftDelete   LifecycleAction = "soft_delete"
	ActionMoveCategory LifecycleAction = "change_category"
)

// ListingLifecycleEvent is emitted exactly once per lifecycle transition and
// consumed by named subscribers (the aggregate ledger synchronously inside
// the transition, the alert matcher after commit).
type ListingLifecycleEvent struct {
	ListingID   string          `json:"listing_id"`
	Action      LifecycleAction `json:"action"`
	OldStatus   ListingStatus   `json:"old_status"`
	NewStatus   ListingStatus   `json:"new_status"`
	OldCategory string          `json:"old_category"`
	NewCategory string          `json:"new_category"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// CounterField names a counter living on an entity record.
type CounterField string

const (
	CounterListingCount  CounterField = "listing_count"
	CounterUsageCount    CounterField = "usage_count"
	CounterViewCount     CounterField = "view_count"
	CounterFavoriteCount CounterField = "favorite_count"
	CounterContactCount  CounterField = "contact_count"
)

// CounterKey addresses one named counter: the owning collection, the record
// id and the counter field on it.
type CounterKey struct {
	Owner string
	ID    string
	Field CounterField
}

const (
	OwnerCategory = "category"
	OwnerTag      = "tag"
	OwnerListing  = "listing"
)

func CategoryListingCount(categoryID string) CounterKey {
	return CounterKey{Owner: OwnerCategory, ID: categoryID, Field: CounterListingCount}
}

func TagUsageCount(tagID string) CounterKey {
	return CounterKey{Owner: OwnerTag, ID: tagID, Field: CounterUsageCount}
}

func ListingCounter(listingID string, field CounterField) CounterKey {
	return CounterKey{Owner: OwnerListing, ID: listingID, Field: field}
}
