package services

import (
	"fmt"
	"log"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
)

// NotificationService persists driver notifications and hands them to the
// push channel. Push delivery is a logged simulation; the persisted row is
// what the notification screens read.
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Notify writes the notification row and reports it to the push channel.
func (ns *NotificationService) Notify(driverPhone, notifType, title, message, refType, refID string) error {
	notification := models.Notification{
		DriverPhoneRef: driverPhone,
		Type:           notifType,
		Title:          title,
		Message:        message,
		RefType:        refType,
		RefID:          refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("notifications: failed to persist for %s: %v", driverPhone, err)
		return err
	}

	log.Printf("push: %s -> %s: %s", driverPhone, title, message)
	return nil
}

// NotifyKYCDecision tells the driver how a verification attempt settled.
func (ns *NotificationService) NotifyKYCDecision(driverPhone string, approved bool, sessionID string) error {
	title := "Verification Approved ✅"
	message := "Your documents were verified. You can start accepting rides."
	if !approved {
		title = "Verification Under Review"
		message = "Your documents need a manual check. We will notify you once an agent reviews them."
	}
	return ns.Notify(driverPhone, "kyc_decision", title, message, "verification_session", sessionID)
}

// NotifyWalletCredit announces a wallet credit.
func (ns *NotificationService) NotifyWalletCredit(driverPhone string, amount float64, txID uint) error {
	title := "Wallet Credited"
	message := fmt.Sprintf("ETB %.2f was added to your wallet.", amount)
	return ns.Notify(driverPhone, "wallet_credit", title, message, "wallet_transaction", fmt.Sprintf("%d", txID))
}

// NotifyRideUpdate announces a ride lifecycle change.
func (ns *NotificationService) NotifyRideUpdate(driverPhone string, rideID uint, status models.RideStatus) error {
	title := "Ride Update"
	message := fmt.Sprintf("Ride #%d is now %s.", rideID, status)
	return ns.Notify(driverPhone, "ride_update", title, message, "ride", fmt.Sprintf("%d", rideID))
}

// NotifyAdminDecision tells the driver the result of a manual review.
func (ns *NotificationService) NotifyAdminDecision(driverPhone string, status models.ApprovalStatus, reason string) error {
	switch status {
	case models.ApprovalApproved:
		return ns.Notify(driverPhone, "kyc_decision",
			"Account Approved 🎉", "An agent approved your account. Welcome aboard!", "driver", driverPhone)
	case models.ApprovalRejected:
		message := "Your application was rejected."
		if reason != "" {
			message = fmt.Sprintf("Your application was rejected: %s", reason)
		}
		return ns.Notify(driverPhone, "kyc_decision", "Account Rejected", message, "driver", driverPhone)
	}
	return nil
}
