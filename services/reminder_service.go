package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"carwash-backend/config"
	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageSender delivers one text message and returns the provider's message id.
type MessageSender interface {
	Send(to, from, body string) (string, error)
}

type twilioSender struct {
	client *twilio.RestClient
}

// NewTwilioSender sends messages through the Twilio REST API.
func NewTwilioSender(cfg config.TwilioConfig) MessageSender {
	return &twilioSender{client: twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})}
}

func (t *twilioSender) Send(to, from, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// ReminderService sends wash reminders for tomorrow's washes.
type ReminderService struct {
	db      *gorm.DB
	sender  MessageSender
	numbers config.TwilioConfig
	log     *zap.Logger
}

func NewReminderService(db *gorm.DB, sender MessageSender, numbers config.TwilioConfig, log *zap.Logger) *ReminderService {
	return &ReminderService{db: db, sender: sender, numbers: numbers, log: log}
}

// Start schedules SendWashReminders on the cron schedule and starts the cron runner.
// The caller stops the returned cron on shutdown.
func (s *ReminderService) Start(schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(utils.Location()))
	_, err := c.AddFunc(schedule, func() {
		run, err := s.SendWashReminders(context.Background(), utils.Now())
		if err != nil {
			s.log.Error("wash reminder run failed", zap.Error(err))
			return
		}
		s.log.Info("wash reminder run finished", zap.Int("sent", run.Sent), zap.Int("failed", run.Failed))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	s.log.Info("reminder scheduler started", zap.String("schedule", schedule))
	return c, nil
}

// ReminderRun counts the outcome of one reminder run.
type ReminderRun struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendWashReminders messages every customer with an open wash tomorrow.
// Nothing is sent when there is no active wash_reminder template.
func (s *ReminderService) SendWashReminders(ctx context.Context, now time.Time) (ReminderRun, error) {
	var run ReminderRun

	var tmpl models.ReminderTemplate
	err := s.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", models.ReminderTypeWash, true).
		Order("updated_at DESC").
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("no active wash reminder template")
		return run, nil
	}
	if err != nil {
		return run, err
	}

	var open []models.WashRecord
	if err := s.db.WithContext(ctx).Preload("Lead").
		Where("status IN ?", []string{models.WashStatusScheduled, models.WashStatusPending}).
		Find(&open).Error; err != nil {
		return run, err
	}

	tomorrow := utils.BeginningOfDay(now).AddDate(0, 0, 1)
	for i := range open {
		w := &open[i]
		if w.Lead == nil || !utils.SameDay(w.Date, tomorrow) {
			continue
		}
		if s.remind(ctx, tmpl, w, now) {
			run.Sent++
		} else {
			run.Failed++
		}
	}
	return run, nil
}

func (s *ReminderService) remind(ctx context.Context, tmpl models.ReminderTemplate, w *models.WashRecord, now time.Time) bool {
	message := RenderReminder(tmpl.Message, w)
	channel, to, from := s.route(w.Lead.Phone)

	entry := models.ReminderLog{
		LeadID:       w.LeadID,
		WashRecordID: w.ID,
		TemplateID:   tmpl.ID,
		Message:      message,
		Status:       models.ReminderSent,
		Channel:      channel,
		SentAt:       now,
	}
	sid, err := s.sender.Send(to, from, message)
	if err != nil {
		entry.Status = models.ReminderFailed
		entry.ErrorMessage = err.Error()
		s.log.Warn("reminder failed", zap.Uint("leadId", w.LeadID), zap.String("channel", channel), zap.Error(err))
	} else {
		s.log.Debug("reminder sent", zap.Uint("leadId", w.LeadID), zap.String("sid", sid))
	}
	config.RemindersSent.WithLabelValues(channel, entry.Status).Inc()

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Error("failed to log reminder", zap.Uint("leadId", w.LeadID), zap.Error(err))
	}
	return entry.Status == models.ReminderSent
}

// route picks WhatsApp for numbers stored in E.164 form and SMS otherwise.
// Local numbers get the configured country code.
func (s *ReminderService) route(phone string) (channel, to, from string) {
	to = utils.ToE164(phone, s.numbers.DefaultCountryCode)
	if utils.IsE164(phone) && s.numbers.WhatsAppNumber != "" {
		return models.ChannelWhatsApp, "whatsapp:" + to, "whatsapp:" + s.numbers.WhatsAppNumber
	}
	return models.ChannelSMS, to, s.numbers.PhoneNumber
}

// RenderReminder fills the [CustomerName], [WashType] and [Date] placeholders.
func RenderReminder(message string, w *models.WashRecord) string {
	name := ""
	if w.Lead != nil {
		name = w.Lead.CustomerName
	}
	return strings.NewReplacer(
		"[CustomerName]", name,
		"[WashType]", w.WashType,
		"[Date]", w.Date.In(utils.Location()).Format("02 Jan 2006"),
	).Replace(message)
}
