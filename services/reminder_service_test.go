package services

import (
	"context"
	"errors"
	"testing"

	"carwash-backend/config"
	"carwash-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	to, from, body string
}

type fakeSender struct {
	sent   []sentMessage
	failTo string
}

func (f *fakeSender) Send(to, from, body string) (string, error) {
	if to == f.failTo {
		return "", errors.New("undeliverable")
	}
	f.sent = append(f.sent, sentMessage{to, from, body})
	return "SM123", nil
}

func TestRenderReminder(t *testing.T) {
	w := &models.WashRecord{
		WashType: "Premium",
		Date:     day(2026, 3, 21, 9, 0),
		Lead:     &models.Lead{CustomerName: "Priya"},
	}
	got := RenderReminder("Hi [CustomerName], your [WashType] wash is on [Date].", w)
	assert.Equal(t, "Hi Priya, your Premium wash is on 21 Mar 2026.", got)
}

func TestSendWashReminders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := day(2026, 3, 20, 18, 0)

	sms := createLead(t, db, "9200000001", models.LeadTypeOneTime)
	whatsapp := createLead(t, db, "+919200000002", models.LeadTypeMonthly)
	broken := createLead(t, db, "9200000003", models.LeadTypeOneTime)

	seedWash(t, db, sms, models.WashKindOneTime, models.WashStatusScheduled, 200, false, day(2026, 3, 21, 9, 0), nil)
	seedWash(t, db, whatsapp, models.WashKindSubscription, models.WashStatusScheduled, 100, true, day(2026, 3, 21, 11, 0), nil)
	seedWash(t, db, broken, models.WashKindAdhoc, models.WashStatusPending, 150, false, day(2026, 3, 21, 12, 0), nil)
	// not tomorrow, or already done
	seedWash(t, db, sms, models.WashKindAdhoc, models.WashStatusPending, 150, false, day(2026, 3, 23, 12, 0), nil)
	seedWash(t, db, whatsapp, models.WashKindSubscription, models.WashStatusCompleted, 100, true, day(2026, 3, 21, 8, 0), nil)

	numbers := config.TwilioConfig{PhoneNumber: "+15550001111", WhatsAppNumber: "+15550002222", DefaultCountryCode: "+91"}
	sender := &fakeSender{failTo: "+919200000003"}
	svc := NewReminderService(db, sender, numbers, zap.NewNop())

	t.Run("no active template sends nothing", func(t *testing.T) {
		run, err := svc.SendWashReminders(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, ReminderRun{}, run)
		assert.Empty(t, sender.sent)
	})

	require.NoError(t, db.Create(&models.ReminderTemplate{
		Type:     models.ReminderTypeWash,
		Message:  "Hello [CustomerName], [WashType] wash on [Date]",
		IsActive: true,
	}).Error)

	run, err := svc.SendWashReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Sent)
	assert.Equal(t, 1, run.Failed)

	require.Len(t, sender.sent, 2)
	byTo := map[string]sentMessage{}
	for _, m := range sender.sent {
		byTo[m.to] = m
	}
	assert.Equal(t, "+15550001111", byTo["+919200000001"].from)
	assert.Equal(t, "whatsapp:+15550002222", byTo["whatsapp:+919200000002"].from)
	assert.Equal(t, "Hello Customer 9200000001, Basic wash on 21 Mar 2026", byTo["+919200000001"].body)

	var logs []models.ReminderLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 3)
	failed := 0
	for _, l := range logs {
		if l.Status == models.ReminderFailed {
			failed++
			assert.Equal(t, broken.ID, l.LeadID)
			assert.Equal(t, "undeliverable", l.ErrorMessage)
		}
	}
	assert.Equal(t, 1, failed)
}
