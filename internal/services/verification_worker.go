package services

import (
	"log"
	"time"

	"localmarket/internal/database"
	"localmarket/internal/models"

	"gorm.io/gorm"
)

// VerificationWorker periodically nudges owners whose locations have sat
// unverified for too long. Unverified locations never appear in search, so
// a forgotten verification silently hides the business.
type VerificationWorker struct {
	db           *gorm.DB
	emailService *EmailService
	interval     time.Duration
	staleAfter   time.Duration
}

func NewVerificationWorker() *VerificationWorker {
	return &VerificationWorker{
		db:           database.GetDB(),
		emailService: NewEmailService(),
		interval:     time.Minute * 5,
		staleAfter:   time.Hour * 24,
	}
}

func (w *VerificationWorker) Start() {
	go w.run()
}

func (w *VerificationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		w.checkUnverifiedLocations()
	}
}

// Check if a nudge has been sent for this location already
func (w *VerificationWorker) hasNudgeBeenSent(locationID uint) bool {
	var count int64
	w.db.Model(&models.VerificationNudge{}).
		Where("location_id = ?", locationID).
		Count(&count)
	return count > 0
}

// Record that a nudge was sent
func (w *VerificationWorker) recordNudge(locationID uint) {
	nudge := models.VerificationNudge{
		LocationID: locationID,
		SentAt:     time.Now(),
	}
	w.db.Create(&nudge)
}

func (w *VerificationWorker) checkUnverifiedLocations() {
	cutoff := time.Now().Add(-w.staleAfter)

	var locations []models.Location
	w.db.Where("verified = false AND created_at < ?", cutoff).Find(&locations)

	for _, location := range locations {
		if w.hasNudgeBeenSent(location.ID) {
			continue
		}
		w.nudgeOwner(location)
	}
}

func (w *VerificationWorker) nudgeOwner(location models.Location) {
	var business models.Business
	if err := w.db.Where("id = ?", location.BusinessID).First(&business).Error; err != nil {
		log.Printf("Warning: business %d not found for unverified location %d: %v", location.BusinessID, location.ID, err)
		return
	}

	var owner models.Account
	if err := w.db.Where("username = ?", business.OwnerUsername).First(&owner).Error; err != nil {
		log.Printf("Warning: owner %s not found for business %d: %v", business.OwnerUsername, business.ID, err)
		return
	}

	if err := w.emailService.SendVerificationNudgeEmail(owner, business, location); err != nil {
		log.Printf("Failed to send verification nudge for location %d: %v", location.ID, err)
		return
	}

	w.recordNudge(location.ID)
	log.Printf("Sent verification nudge to %s for location %d", owner.Username, location.ID)
}
