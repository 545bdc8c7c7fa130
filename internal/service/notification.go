package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingRequested NotificationType = "BOOKING_REQUESTED"
	NotificationTripApproved     NotificationType = "TRIP_APPROVED"
	NotificationTripRejected     NotificationType = "TRIP_REJECTED"
	NotificationTripCanceled     NotificationType = "TRIP_CANCELED"
	NotificationCheckinReady     NotificationType = "CHECKIN_READY"
	NotificationConfirmRequired  NotificationType = "CONFIRM_REQUIRED"
	NotificationTripFinished     NotificationType = "TRIP_FINISHED"
	NotificationClaimFiled       NotificationType = "CLAIM_FILED"
	NotificationClaimClosed      NotificationType = "CLAIM_CLOSED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingRequested notifies the host about a new booking request.
func (s *NotificationService) NotifyBookingRequested(ctx context.Context, trip *domain.Trip) error {
	s.send(ctx, Notification{
		Type:        NotificationBookingRequested,
		RecipientID: trip.HostID,
		Title:       "New Booking Request",
		Message: fmt.Sprintf("Booking request for car %s, %s to %s",
			trip.CarID, trip.ScheduledStart.Format(time.RFC3339), trip.ScheduledEnd.Format(time.RFC3339)),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"car_id":  trip.CarID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyTripApproved notifies the guest that the host approved the request.
func (s *NotificationService) NotifyTripApproved(ctx context.Context, trip *domain.Trip) error {
	s.send(ctx, Notification{
		Type:        NotificationTripApproved,
		RecipientID: trip.GuestID,
		Title:       "Booking Approved",
		Message:     fmt.Sprintf("Your booking for car %s was approved", trip.CarID),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyTripClosed notifies the counterparty about a rejection or
// cancellation and the full escrow refund that went with it.
func (s *NotificationService) NotifyTripClosed(ctx context.Context, trip *domain.Trip) error {
	typ := NotificationTripCanceled
	title := "Trip Canceled"
	if trip.Status == domain.TripStatusRejected {
		typ = NotificationTripRejected
		title = "Booking Rejected"
	}

	for _, recipient := range []string{trip.GuestID, trip.HostID} {
		s.send(ctx, Notification{
			Type:        typ,
			RecipientID: recipient,
			Title:       title,
			Message:     fmt.Sprintf("Trip %d was closed; escrowed funds were returned to the guest", trip.ID),
			Data: map[string]interface{}{
				"trip_id":   trip.ID,
				"closed_by": string(trip.ClosedBy),
			},
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// NotifyConfirmRequired asks the guest to confirm a host-side checkout.
func (s *NotificationService) NotifyConfirmRequired(ctx context.Context, trip *domain.Trip) error {
	s.send(ctx, Notification{
		Type:        NotificationConfirmRequired,
		RecipientID: trip.GuestID,
		Title:       "Checkout Confirmation Needed",
		Message:     fmt.Sprintf("The host checked car %s back in; please confirm the checkout", trip.CarID),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyTripFinished notifies both parties that settlement completed.
func (s *NotificationService) NotifyTripFinished(ctx context.Context, trip *domain.Trip) error {
	for _, recipient := range []string{trip.GuestID, trip.HostID} {
		s.send(ctx, Notification{
			Type:        NotificationTripFinished,
			RecipientID: recipient,
			Title:       "Trip Settled",
			Message:     fmt.Sprintf("Trip %d finished and escrow was disbursed", trip.ID),
			Data: map[string]interface{}{
				"trip_id":  trip.ID,
				"currency": trip.Payment.Rate.Currency,
			},
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// NotifyClaimFiled notifies the counterparty that a claim was opened.
func (s *NotificationService) NotifyClaimFiled(ctx context.Context, trip *domain.Trip, claim *domain.Claim) error {
	recipient := trip.GuestID
	if claim.Type.GuestFiled() {
		recipient = trip.HostID
	}

	s.send(ctx, Notification{
		Type:        NotificationClaimFiled,
		RecipientID: recipient,
		Title:       "Claim Filed",
		Message:     fmt.Sprintf("A %s claim was filed against trip %d", claim.Type, claim.TripID),
		Data: map[string]interface{}{
			"claim_id": claim.ID,
			"trip_id":  claim.TripID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyClaimClosed notifies the filer about the claim outcome.
func (s *NotificationService) NotifyClaimClosed(ctx context.Context, claim *domain.Claim) error {
	s.send(ctx, Notification{
		Type:        NotificationClaimClosed,
		RecipientID: claim.FilerID,
		Title:       "Claim Closed",
		Message:     fmt.Sprintf("Claim %s is now %s", claim.ID, claim.Status),
		Data: map[string]interface{}{
			"claim_id":         claim.ID,
			"paid_amount":      claim.PaidCents,
			"unresolved_cents": claim.UnresolvedCents,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// send delivers a notification. Currently logs; would integrate with push
// notification services in production.
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	notification.ID = uuid.New().String()

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
}
