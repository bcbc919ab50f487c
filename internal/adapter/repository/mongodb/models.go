package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
)

type categoryDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Slug         string    `bson:"slug"`
	Kind         string    `bson:"kind"`
	ParentID     *string   `bson:"parent_id,omitempty"`
	Depth        int       `bson:"depth"`
	ListingCount int64     `bson:"listing_count"`
	IsActive     bool      `bson:"is_active"`
	SortOrder    int       `bson:"sort_order"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func fromEntityCategory(c *entity.Category) *categoryDocument {
	return &categoryDocument{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Kind:         c.Kind,
		ParentID:     c.ParentID,
		Depth:        c.Depth,
		ListingCount: c.ListingCount,
		IsActive:     c.IsActive,
		SortOrder:    c.SortOrder,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d *categoryDocument) toEntity() *entity.Category {
	return &entity.Category{
		ID:           d.ID,
		Name:         d.Name,
		Slug:         d.Slug,
		Kind:         d.Kind,
		ParentID:     d.ParentID,
		Depth:        d.Depth,
		ListingCount: d.ListingCount,
		IsActive:     d.IsActive,
		SortOrder:    d.SortOrder,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type listingDocument struct {
	ID            string     `bson:"_id"`
	UserID        string     `bson:"user_id"`
	CategoryID    string     `bson:"category_id"`
	Title         string     `bson:"title"`
	Description   string     `bson:"description"`
	PriceAmount   *int64     `bson:"price_amount,omitempty"`
	PriceCurrency string     `bson:"price_currency,omitempty"`
	Status        string     `bson:"status"`
	City          string     `bson:"city,omitempty"`
	PostalCode    string     `bson:"postal_code,omitempty"`
	Tags          []string   `bson:"tags,omitempty"`
	ViewCount     int64      `bson:"view_count"`
	FavoriteCount int64      `bson:"favorite_count"`
	ContactCount  int64      `bson:"contact_count"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	ActivatedAt   *time.Time `bson:"activated_at,omitempty"`
	ExpiresAt     *time.Time `bson:"expires_at,omitempty"`
}

func fromEntityListing(l *entity.Listing) *listingDocument {
	doc := &listingDocument{
		ID:            l.ID,
		UserID:        l.UserID,
		CategoryID:    l.CategoryID,
		Title:         l.Title,
		Description:   l.Description,
		Status:        string(l.Status),
		City:          l.City,
		PostalCode:    l.PostalCode,
		Tags:          l.Tags,
		ViewCount:     l.ViewCount,
		FavoriteCount: l.FavoriteCount,
		ContactCount:  l.ContactCount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		ActivatedAt:   l.ActivatedAt,
		ExpiresAt:     l.ExpiresAt,
	}
	if l.Price != nil {
		doc.PriceAmount = &l.Price.Amount
		doc.PriceCurrency = l.Price.CurrencyCode
	}
	return doc
}

func (d *listingDocument) toEntity() *entity.Listing {
	l := &entity.Listing{
		ID:            d.ID,
		UserID:        d.UserID,
		CategoryID:    d.CategoryID,
		Title:         d.Title,
		Description:   d.Description,
		Status:        entity.ListingStatus(d.Status),
		City:          d.City,
		PostalCode:    d.PostalCode,
		Tags:          d.Tags,
		ViewCount:     d.ViewCount,
		FavoriteCount: d.FavoriteCount,
		ContactCount:  d.ContactCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		ActivatedAt:   d.ActivatedAt,
		ExpiresAt:     d.ExpiresAt,
	}
	if d.PriceAmount != nil {
		l.Price = &entity.Price{Amount: *d.PriceAmount, CurrencyCode: d.PriceCurrency}
	}
	return l
}

type tagDocument struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	UsageCount int64     `bson:"usage_count"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d *tagDocument) toEntity() *entity.Tag {
	return &entity.Tag{
		ID:         d.ID,
		Name:       d.Name,
		UsageCount: d.UsageCount,
		CreatedAt:  d.CreatedAt,
	}
}

type favoriteDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ListingID string    `bson:"listing_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type ratingDocument struct {
	ID        string    `bson:"_id"`
	RaterID   string    `bson:"rater_id"`
	RateeID   string    `bson:"ratee_id"`
	ListingID string    `bson:"listing_id"`
	Score     int32     `bson:"score"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d *ratingDocument) toEntity() *entity.UserRating {
	return &entity.UserRating{
		ID:        d.ID,
		RaterID:   d.RaterID,
		RateeID:   d.RateeID,
		ListingID: d.ListingID,
		Score:     d.Score,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
	}
}

type ratingAggregateDocument struct {
	UserID        string    `bson:"_id"`
	RatingAverage float64   `bson:"rating_average"`
	RatingCount   int64     `bson:"rating_count"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type conversationDocument struct {
	ID            string    `bson:"_id"`
	ListingID     string    `bson:"listing_id"`
	BuyerID       string    `bson:"buyer_id"`
	SellerID      string    `bson:"seller_id"`
	LastMessageAt time.Time `bson:"last_message_at"`
	IsActive      bool      `bson:"is_active"`
	CreatedAt     time.Time `bson:"created_at"`
}

func (d *conversationDocument) toEntity() *entity.Conversation {
	return &entity.Conversation{
		ID:            d.ID,
		ListingID:     d.ListingID,
		BuyerID:       d.BuyerID,
		SellerID:      d.SellerID,
		LastMessageAt: d.LastMessageAt,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
	}
}

type messageDocument struct {
	ID             string     `bson:"_id"`
	ConversationID string     `bson:"conversation_id"`
	SenderID       string     `bson:"sender_id"`
	Content        string     `bson:"content"`
	Status         string     `bson:"status"`
	CreatedAt      time.Time  `bson:"created_at"`
	ReadAt         *time.Time `bson:"read_at,omitempty"`
}

func (d *messageDocument) toEntity() *entity.Message {
	return &entity.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		Content:        d.Content,
		Status:         entity.MessageStatus(d.Status),
		CreatedAt:      d.CreatedAt,
		ReadAt:         d.ReadAt,
	}
}

type savedSearchDocument struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"name"`
	CategoryID  string    `bson:"category_id,omitempty"`
	Keyword     string    `bson:"keyword,omitempty"`
	PriceMin    *int64    `bson:"price_min,omitempty"`
	PriceMax    *int64    `bson:"price_max,omitempty"`
	City        string    `bson:"city,omitempty"`
	RadiusKm    int       `bson:"radius_km,omitempty"`
	EmailAlerts bool      `bson:"email_alerts"`
	IsActive    bool      `bson:"is_active"`
	Watermark   time.Time `bson:"watermark"`
	CreatedAt   time.Time `bson:"created_at"`
}

func fromEntitySavedSearch(s *entity.SavedSearch) *savedSearchDocument {
	return &savedSearchDocument{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		CategoryID:  s.CategoryID,
		Keyword:     s.Keyword,
		PriceMin:    s.PriceMin,
		PriceMax:    s.PriceMax,
		City:        s.City,
		RadiusKm:    s.RadiusKm,
		EmailAlerts: s.EmailAlerts,
		IsActive:    s.IsActive,
		Watermark:   s.Watermark,
		CreatedAt:   s.CreatedAt,
	}
}

func (d *savedSearchDocument) toEntity() *entity.SavedSearch {
	return &entity.SavedSearch{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		CategoryID:  d.CategoryID,
		Keyword:     d.Keyword,
		PriceMin:    d.PriceMin,
		PriceMax:    d.PriceMax,
		City:        d.City,
		RadiusKm:    d.RadiusKm,
		EmailAlerts: d.EmailAlerts,
		IsActive:    d.IsActive,
		Watermark:   d.Watermark,
		CreatedAt:   d.CreatedAt,
	}
}

type notificationDocument struct {
	ID            string            `bson:"_id"`
	UserID        string            `bson:"user_id"`
	Type          string            `bson:"type"`
	Title         string            `bson:"title"`
	Payload       map[string]string `bson:"payload,omitempty"`
	SavedSearchID string            `bson:"saved_search_id,omitempty"`
	ListingID     string            `bson:"listing_id,omitempty"`
	EmailSent     bool              `bson:"email_sent"`
	IsRead        bool              `bson:"is_read"`
	CreatedAt     time.Time         `bson:"created_at"`
}

func fromEntityNotification(n *entity.Notification) *notificationDocument {
	return &notificationDocument{
		ID:            n.ID,
		UserID:        n.UserID,
		Type:          string(n.Type),
		Title:         n.Title,
		Payload:       n.Payload,
		SavedSearchID: n.SavedSearchID,
		ListingID:     n.ListingID,
		EmailSent:     n.EmailSent,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

func (d *notificationDocument) toEntity() *entity.Notification {
	return &entity.Notification{
		ID:            d.ID,
		UserID:        d.UserID,
		Type:          entity.NotificationType(d.Type),
		Title:         d.Title,
		Payload:       d.Payload,
		SavedSearchID: d.SavedSearchID,
		ListingID:     d.ListingID,
		EmailSent:     d.EmailSent,
		IsRead:        d.IsRead,
		CreatedAt:     d.CreatedAt,
	}
}
