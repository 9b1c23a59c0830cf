package services

import (
	"testing"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func resultFor(results []DeliveryResult, channel string) *DeliveryResult {
	for i := range results {
		if results[i].Channel == channel {
			return &results[i]
		}
	}
	return nil
}

func TestDispatchChannelOutcomes(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createTestUser(t, db, "bendahara", models.RolePerbendaharaan, nil)
	db.Model(user).Updates(map[string]interface{}{
		"email": "bendahara@bkad.go.id",
		"phone": "081234567890",
	})

	results := svc.Dispatch(&NotificationEvent{
		UserID:   user.ID,
		Title:    "SPM Menunggu Tindakan",
		Body:     "SPM/2026/08/TEST0001 menunggu verifikasi Anda.",
		Category: "approval",
	})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 channels", len(results))
	}

	// In-app always lands; it has no external dependency.
	inapp := resultFor(results, ChannelInApp)
	if inapp == nil || inapp.Status != DeliveryDelivered {
		t.Fatalf("in-app result = %+v, want delivered", inapp)
	}
	var row models.Notification
	if err := db.Where("user_id = ?", user.ID).First(&row).Error; err != nil {
		t.Fatalf("no in-app row created: %v", err)
	}
	if row.Category != "approval" {
		t.Fatalf("Category = %q, want approval", row.Category)
	}

	// Email and WhatsApp are disabled in test config: skipped, not failed.
	for _, ch := range []string{ChannelEmail, ChannelWhatsApp} {
		r := resultFor(results, ch)
		if r == nil || r.Status != DeliverySkipped {
			t.Fatalf("%s result = %+v, want skipped", ch, r)
		}
		if r.Reason != "config_not_found" {
			t.Fatalf("%s reason = %q, want config_not_found", ch, r.Reason)
		}
		if r.Outcome() != "config_not_found" {
			t.Fatalf("%s Outcome() = %q", ch, r.Outcome())
		}
	}
}

func TestDispatchMissingContactDetails(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createTestUser(t, db, "opd_user", models.RoleOPD, nil)

	results := svc.Dispatch(&NotificationEvent{
		UserID: user.ID, Title: "T", Body: "B", Category: "approval",
	})

	email := resultFor(results, ChannelEmail)
	if email == nil || email.Reason != "email_not_found" {
		t.Fatalf("email result = %+v, want email_not_found", email)
	}
	wa := resultFor(results, ChannelWhatsApp)
	if wa == nil || wa.Reason != "phone_not_found" {
		t.Fatalf("whatsapp result = %+v, want phone_not_found", wa)
	}
}

func TestDispatchUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	results := svc.Dispatch(&NotificationEvent{UserID: 999, Title: "T", Body: "B"})
	for _, r := range results {
		if r.Status != DeliveryFailed || r.Reason != "user_not_found" {
			t.Fatalf("result = %+v, want failed/user_not_found", r)
		}
	}
}

func TestDispatchSkipInApp(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createTestUser(t, db, "kepala", models.RoleKepalaBKAD, nil)

	results := svc.Dispatch(&NotificationEvent{
		UserID:    user.ID,
		Title:     "Kode Verifikasi",
		Body:      "Kode Anda: 123456",
		Category:  "otp",
		SkipInApp: true,
	})
	if r := resultFor(results, ChannelInApp); r != nil {
		t.Fatalf("in-app channel ran despite SkipInApp: %+v", r)
	}

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Fatalf("in-app rows = %d, want 0", count)
	}
}

func TestDispatchToRoles(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	createTestUser(t, db, "admin1", models.RoleAdministrator, nil)
	createTestUser(t, db, "admin2", models.RoleAdministrator, nil)
	inactive := createTestUser(t, db, "admin3", models.RoleAdministrator, nil)
	db.Model(inactive).Update("is_active", false)
	createTestUser(t, db, "opd1", models.RoleOPD, nil)

	outcomes := svc.DispatchToRoles([]string{models.RoleAdministrator}, &NotificationEvent{
		Title: "Mode Darurat Diaktifkan", Body: "B", Category: "emergency",
	})
	if len(outcomes) != 2 {
		t.Fatalf("fan-out reached %d users, want 2 active administrators", len(outcomes))
	}

	var count int64
	db.Model(&models.Notification{}).Where("category = ?", "emergency").Count(&count)
	if count != 2 {
		t.Fatalf("in-app rows = %d, want 2", count)
	}
}

func TestNotificationListAndMarkRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createTestUser(t, db, "opd_user", models.RoleOPD, nil)
	other := createTestUser(t, db, "other", models.RoleOPD, nil)

	for i := 0; i < 3; i++ {
		svc.Dispatch(&NotificationEvent{UserID: user.ID, Title: "T", Body: "B", Category: "approval"})
	}
	svc.Dispatch(&NotificationEvent{UserID: other.ID, Title: "T", Body: "B", Category: "approval"})

	resp, err := svc.List(user.ID, &NotificationListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 3 || resp.Unread != 3 {
		t.Fatalf("Total = %d, Unread = %d, want 3/3", resp.Total, resp.Unread)
	}

	// MarkRead is scoped to the owner.
	if err := svc.MarkRead(other.ID, resp.Items[0].ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	resp, _ = svc.List(user.ID, &NotificationListRequest{})
	if resp.Unread != 3 {
		t.Fatalf("Unread = %d after foreign MarkRead, want 3", resp.Unread)
	}

	if err := svc.MarkAllRead(user.ID); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	resp, _ = svc.List(user.ID, &NotificationListRequest{UnreadOnly: true})
	if resp.Total != 0 {
		t.Fatalf("unread notifications = %d after MarkAllRead, want 0", resp.Total)
	}
}
