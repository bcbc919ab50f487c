package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/notifier"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationUsecase threads buyer-seller messages per listing and tracks
// read state per participant. PostMessage and MarkRead on the same
// conversation are serialized; different conversations proceed in parallel.
type ConversationUsecase struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	listings      repository.ListingRepository
	ledger        *AggregateLedger
	sink          notifier.Sink
	metrics       *metrics.MetricsManager
	logger        *logger.Logger

	locks keyedMutex
}

func NewConversationUsecase(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	listings repository.ListingRepository,
	ledger *AggregateLedger,
	sink notifier.Sink,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *ConversationUsecase {
	return &ConversationUsecase{
		conversations: conversations,
		messages:      messages,
		listings:      listings,
		ledger:        ledger,
		sink:          sink,
		metrics:       mm,
		logger:        log.Named("Conversation"),
	}
}

// GetOrCreateConversation returns the active conversation for the
// (listing, buyer, seller) triple, creating it on first contact. Idempotent:
// repeated calls return the same conversation. The listing's contact counter
// increments only when a conversation is actually created.
func (uc *ConversationUsecase) GetOrCreateConversation(ctx context.Context, listingID, buyerID, sellerID string) (*entity.Conversation, error) {
	if buyerID == sellerID {
		return nil, fmt.Errorf("%w: user %s", entity.ErrSelfContact, buyerID)
	}

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return nil, fmt.Errorf("Conversation.GetOrCreateConversation: %w", err)
	}
	if listing.UserID != sellerID {
		return nil, fmt.Errorf("%w: user %s does not own listing %s", entity.ErrValidation, sellerID, listingID)
	}

	now := time.Now().UTC()
	conv := &entity.Conversation{
		ID:            uuid.NewString(),
		ListingID:     listingID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		LastMessageAt: now,
		IsActive:      true,
		CreatedAt:     now,
	}
	out, created, err := uc.conversations.GetOrCreate(ctx, conv)
	if err != nil {
		uc.logger.Error("Failed to get or create conversation",
			zap.Error(err),
			zap.String("listing_id", listingID),
			zap.String("buyer_id", buyerID))
		return nil, fmt.Errorf("Conversation.GetOrCreateConversation: %w", err)
	}
	if created {
		if err := uc.ledger.ApplyDelta(ctx, entity.ListingCounter(listingID, entity.CounterContactCount), 1); err != nil {
			uc.logger.Warn("Failed to bump contact counter", zap.Error(err), zap.String("listing_id", listingID))
		}
		uc.logger.Info("Conversation created",
			zap.String("conversation_id", out.ID),
			zap.String("listing_id", listingID))
	}
	return out, nil
}

// PostMessage appends a message from sender to the conversation and bumps
// last_message_at. The recipient gets a notification through the shared
// sink.
func (uc *ConversationUsecase) PostMessage(ctx context.Context, conversationID, senderID, content string) (*entity.Message, error) {
	if utf8.RuneCountInString(content) < entity.MinMessageLength {
		return nil, fmt.Errorf("%w: message must be at least %d characters", entity.ErrValidation, entity.MinMessageLength)
	}

	unlock := uc.locks.Lock(conversationID)
	defer unlock()

	conv, err := uc.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: conversation %s", entity.ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("Conversation.PostMessage: %w", err)
	}
	if !conv.Participant(senderID) {
		return nil, fmt.Errorf("%w: user %s in conversation %s", entity.ErrNotParticipant, senderID, conversationID)
	}

	now := time.Now().UTC()
	msg := &entity.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Status:         entity.MessageSent,
		CreatedAt:      now,
	}
	if err := uc.messages.Create(ctx, msg); err != nil {
		uc.logger.Error("Failed to store message", zap.Error(err), zap.String("conversation_id", conversationID))
		return nil, fmt.Errorf("Conversation.PostMessage: %w", err)
	}
	if err := uc.conversations.TouchLastMessage(ctx, conversationID, now); err != nil {
		uc.logger.Warn("Failed to touch last_message_at", zap.Error(err), zap.String("conversation_id", conversationID))
	}

	if uc.metrics != nil {
		uc.metrics.MessagesPostedTotal.Inc()
	}

	if uc.sink != nil {
		n := &entity.Notification{
			ID:        uuid.NewString(),
			UserID:    conv.Other(senderID),
			Type:      entity.NotificationMessage,
			Title:     "New message",
			Payload: map[string]string{
				"conversation_id": conversationID,
				"listing_id":      conv.ListingID,
				"sender_id":       senderID,
			},
			ListingID: conv.ListingID,
			CreatedAt: now,
		}
		if err := uc.sink.Notify(ctx, n); err != nil {
			uc.logger.Warn("Failed to notify message recipient", zap.Error(err), zap.String("conversation_id", conversationID))
		}
	}

	uc.logger.Debug("Message posted", zap.String("conversation_id", conversationID), zap.String("message_id", msg.ID))
	return msg, nil
}

// MarkRead marks every message authored by the other participant as read.
// Idempotent: re-running it changes nothing, and the reader's own messages
// are never touched.
func (uc *ConversationUsecase) MarkRead(ctx context.Context, conversationID, readerID string) error {
	unlock := uc.locks.Lock(conversationID)
	defer unlock()

	conv, err := uc.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: conversation %s", entity.ErrNotFound, conversationID)
		}
		return fmt.Errorf("Conversation.MarkRead: %w", err)
	}
	if !conv.Participant(readerID) {
		return fmt.Errorf("%w: user %s in conversation %s", entity.ErrNotParticipant, readerID, conversationID)
	}

	changed, err := uc.messages.MarkRead(ctx, conversationID, readerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("Conversation.MarkRead: %w", err)
	}
	if changed > 0 {
		uc.logger.Debug("Messages marked read",
			zap.String("conversation_id", conversationID),
			zap.String("reader_id", readerID),
			zap.Int64("count", changed))
	}
	return nil
}

// UnreadCountFor counts the messages not authored by the participant that
// are still unread.
func (uc *ConversationUsecase) UnreadCountFor(ctx context.Context, conversationID, participantID string) (int64, error) {
	conv, err := uc.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: conversation %s", entity.ErrNotFound, conversationID)
		}
		return 0, fmt.Errorf("Conversation.UnreadCountFor: %w", err)
	}
	if !conv.Participant(participantID) {
		return 0, fmt.Errorf("%w: user %s in conversation %s", entity.ErrNotParticipant, participantID, conversationID)
	}
	count, err := uc.messages.CountUnread(ctx, conversationID, participantID)
	if err != nil {
		return 0, fmt.Errorf("Conversation.UnreadCountFor: %w", err)
	}
	return count, nil
}
