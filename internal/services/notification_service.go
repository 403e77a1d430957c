package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/messaging"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
	"gorm.io/datatypes"
)

// NotificationDraft is the input for storing a notification without sending it.
type NotificationDraft struct {
	UserID    *string                 `json:"userId,omitempty" validate:"omitempty,max=36"`
	TenantID  *string                 `json:"tenantId,omitempty" validate:"omitempty,max=36"`
	Type      models.NotificationType `json:"type" validate:"required,oneof=sms email whatsapp"`
	Title     string                  `json:"title" validate:"required,max=255"`
	Message   string                  `json:"message" validate:"required"`
	Recipient string                  `json:"recipient" validate:"max=255"`
	Variables map[string]interface{}  `json:"variables,omitempty"`
}

// NotificationPatch may only change Read. Any other supplied field is rejected.
type NotificationPatch struct {
	Read *bool `json:"read"`

	UserID         *string                  `json:"userId"`
	TenantID       *string                  `json:"tenantId"`
	Type           *models.NotificationType `json:"type"`
	Title          *string                  `json:"title"`
	Message        *string                  `json:"message"`
	Recipient      *string                  `json:"recipient"`
	DeliveryStatus *models.DeliveryStatus   `json:"deliveryStatus"`
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	Query          string                  `form:"q"`
	UserID         string                  `form:"userId"`
	TenantID       string                  `form:"tenantId"`
	Type           models.NotificationType `form:"type"`
	DeliveryStatus models.DeliveryStatus   `form:"deliveryStatus"`
	UnreadOnly     bool                    `form:"unread"`
}

// Recipient is one addressee of a bulk send. An empty Address is looked up from the tenant.
type Recipient struct {
	TenantID  *string           `json:"tenantId,omitempty" validate:"required_without=Address"`
	Address   string            `json:"address,omitempty" validate:"max=255"`
	Variables map[string]string `json:"variables,omitempty"`
}

// SendRequest sends one message to many recipients. Either TemplateKey or Body is required.
type SendRequest struct {
	UserID      *string                 `json:"-"`
	TemplateKey string                  `json:"templateKey,omitempty" validate:"required_without=Body"`
	Channel     models.NotificationType `json:"channel,omitempty" validate:"omitempty,oneof=sms email whatsapp"`
	Title       string                  `json:"title,omitempty" validate:"max=255"`
	Body        string                  `json:"body,omitempty"`
	Variables   map[string]string       `json:"variables,omitempty"`
	Recipients  []Recipient             `json:"recipients" validate:"required,min=1,dive"`
}

// SendResult is the outcome for one recipient.
type SendResult struct {
	Recipient      string   `json:"recipient"`
	TenantID       *string  `json:"tenantId,omitempty"`
	NotificationID string   `json:"notificationId,omitempty"`
	DeliveryID     string   `json:"deliveryId,omitempty"`
	Error          string   `json:"error,omitempty"`
	Missing        []string `json:"missingVariables,omitempty"`
}

// SendReport summarises a bulk send.
type SendReport struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []SendResult `json:"results"`
}

// NotificationService stores notifications and sends them through a messaging.Sender.
type NotificationService interface {
	Create(ctx context.Context, draft NotificationDraft) (*models.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	Update(ctx context.Context, id string, patch NotificationPatch) (*models.Notification, error)
	Delete(ctx context.Context, id string) error

	// Send delivers the rendered message to every recipient. A failed recipient never
	// aborts the batch; every attempt is stored with its delivery status. When ctx ends
	// mid-batch the results so far are returned together with ctx.Err().
	Send(ctx context.Context, req SendRequest) (*SendReport, error)

	// SendOverdueReminders sends the overdue template to the tenant of every overdue bill.
	SendOverdueReminders(ctx context.Context, asOf time.Time) (*SendReport, error)
}

type notificationService struct {
	crud          crud[models.Notification]
	notifications repository.NotificationRepository
	tenants       repository.TenantRepository
	bills         repository.BillRepository
	sender        messaging.Sender
	formatter     format.Formatter
	log           *logger.Logger
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(
	notifications repository.NotificationRepository,
	tenants repository.TenantRepository,
	bills repository.BillRepository,
	sender messaging.Sender,
	formatter format.Formatter,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		crud:          crud[models.Notification]{name: "notification", repo: notifications, log: log},
		notifications: notifications,
		tenants:       tenants,
		bills:         bills,
		sender:        sender,
		formatter:     formatter,
		log:           log,
	}
}

func (d NotificationDraft) record() *models.Notification {
	var vars datatypes.JSONMap
	if len(d.Variables) > 0 {
		vars = datatypes.JSONMap(d.Variables)
	}
	return &models.Notification{
		UserID:         d.UserID,
		TenantID:       d.TenantID,
		Type:           d.Type,
		Title:          d.Title,
		Message:        d.Message,
		Recipient:      d.Recipient,
		DeliveryStatus: models.DeliveryPending,
		Variables:      vars,
	}
}

func (p NotificationPatch) validate() error {
	verr := &validation.Error{}
	immutable := map[string]bool{
		"userId":         p.UserID != nil,
		"tenantId":       p.TenantID != nil,
		"type":           p.Type != nil,
		"title":          p.Title != nil,
		"message":        p.Message != nil,
		"recipient":      p.Recipient != nil,
		"deliveryStatus": p.DeliveryStatus != nil,
	}
	for field, supplied := range immutable {
		if supplied {
			verr.Add(field, "Cannot be changed after the notification is created")
		}
	}
	return verr.Err()
}

func (s *notificationService) Create(ctx context.Context, draft NotificationDraft) (*models.Notification, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}
	return s.crud.create(ctx, draft.record())
}

func (s *notificationService) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	f := repository.Filter{}
	if filter.UserID != "" {
		f = f.Eq("user_id", filter.UserID)
	}
	if filter.TenantID != "" {
		f = f.Eq("tenant_id", filter.TenantID)
	}
	if filter.Type != "" {
		f = f.Eq("type", filter.Type)
	}
	if filter.DeliveryStatus != "" {
		f = f.Eq("delivery_status", filter.DeliveryStatus)
	}
	if filter.UnreadOnly {
		f = f.Eq("read", false)
	}
	return s.crud.list(ctx, f, func(ns []models.Notification) []models.Notification {
		return search.Notifications(ns, filter.Query)
	})
}

func (s *notificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	return s.crud.get(ctx, id)
}

func (s *notificationService) Update(ctx context.Context, id string, patch NotificationPatch) (*models.Notification, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	return s.crud.update(ctx, id, func(rec *models.Notification) error {
		if patch.Read != nil {
			rec.Read = *patch.Read
		}
		return nil
	})
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}

// message resolves the channel, title and body of a send request.
func (req SendRequest) message() (models.NotificationType, string, string, error) {
	channel, title, body := req.Channel, req.Title, req.Body
	if req.TemplateKey != "" {
		tmpl, ok := format.LookupTemplate(req.TemplateKey)
		if !ok {
			return "", "", "", validation.Field("templateKey", "Unknown template")
		}
		if channel == "" {
			channel = tmpl.Channel
		}
		if title == "" {
			title = tmpl.Title
		}
		if body == "" {
			body = tmpl.Body
		}
	}
	if channel == "" {
		channel = models.ChannelSMS
	}
	if title == "" {
		title = "Notification"
	}
	return channel, title, body, nil
}

// address resolves where a recipient's message goes, filling tenant_name from the tenant.
func (s *notificationService) address(ctx context.Context, r Recipient, channel models.NotificationType, values map[string]string) (string, error) {
	if r.TenantID == nil {
		return r.Address, nil
	}

	tenant, err := s.tenants.Get(ctx, *r.TenantID)
	if err != nil {
		if r.Address != "" && errors.Is(err, ErrNotFound) {
			return r.Address, nil
		}
		return r.Address, err
	}
	if _, ok := values["tenant_name"]; !ok {
		values["tenant_name"] = tenant.FullName
	}
	if _, ok := values["property"]; !ok && tenant.Property != nil {
		values["property"] = tenant.Property.Name
	}
	if r.Address != "" {
		return r.Address, nil
	}
	if channel == models.ChannelEmail {
		if tenant.Email == nil || *tenant.Email == "" {
			return "", errors.New("tenant has no email address")
		}
		return *tenant.Email, nil
	}
	return tenant.Phone, nil
}

func (s *notificationService) Send(ctx context.Context, req SendRequest) (*SendReport, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	channel, titleTmpl, bodyTmpl, err := req.message()
	if err != nil {
		return nil, err
	}

	report := &SendReport{Results: make([]SendResult, 0, len(req.Recipients))}
	for _, r := range req.Recipients {
		if err := ctx.Err(); err != nil {
			s.log.Warn("Bulk notification send interrupted", map[string]interface{}{
				"channel":   channel,
				"sent":      report.Sent,
				"failed":    report.Failed,
				"remaining": len(req.Recipients) - len(report.Results),
			})
			return report, err
		}

		values := make(map[string]string, len(req.Variables)+len(r.Variables)+2)
		for k, v := range req.Variables {
			values[k] = v
		}
		for k, v := range r.Variables {
			values[k] = v
		}

		result := SendResult{Recipient: r.Address, TenantID: r.TenantID}
		addr, addrErr := s.address(ctx, r, channel, values)
		result.Recipient = addr

		title, _ := format.RenderTemplate(titleTmpl, values)
		body, missing := format.RenderTemplate(bodyTmpl, values)
		result.Missing = missing

		rec := &models.Notification{
			UserID:    req.UserID,
			TenantID:  r.TenantID,
			Type:      channel,
			Title:     title,
			Message:   body,
			Recipient: addr,
			Variables: toJSONMap(values),
		}

		sendErr := addrErr
		if sendErr == nil {
			var deliveryID string
			deliveryID, sendErr = s.sender.Send(ctx, messaging.Message{
				Channel:   channel,
				Recipient: addr,
				Subject:   title,
				Body:      body,
			})
			if sendErr == nil {
				result.DeliveryID = deliveryID
				rec.DeliveryID = strPtr(deliveryID)
			}
		}

		if sendErr != nil {
			report.Failed++
			result.Error = sendErr.Error()
			rec.DeliveryStatus = models.DeliveryFailed
			rec.DeliveryError = strPtr(sendErr.Error())
			s.log.Warn("Notification delivery failed", map[string]interface{}{
				"recipient": addr,
				"channel":   channel,
				"error":     sendErr.Error(),
			})
		} else {
			report.Sent++
			rec.DeliveryStatus = models.DeliverySent
		}

		if err := s.notifications.Create(ctx, rec); err != nil {
			s.log.Error("Failed to store notification", err, map[string]interface{}{"recipient": addr})
			if result.Error == "" {
				result.Error = "delivered but not recorded: " + err.Error()
			}
		} else {
			result.NotificationID = rec.ID
		}
		report.Results = append(report.Results, result)
	}

	s.log.Info("Bulk notification send finished", map[string]interface{}{
		"channel": channel,
		"sent":    report.Sent,
		"failed":  report.Failed,
	})
	return report, nil
}

func (s *notificationService) SendOverdueReminders(ctx context.Context, asOf time.Time) (*SendReport, error) {
	bills, err := s.bills.List(ctx, repository.Filter{}.Eq("status", models.BillOverdue))
	if err != nil {
		return nil, err
	}

	var recipients []Recipient
	for _, b := range bills {
		if b.TenantID == nil {
			continue
		}
		recipients = append(recipients, Recipient{
			TenantID: b.TenantID,
			Variables: map[string]string{
				"amount":       format.Amount(b.AmountDue()),
				"days_overdue": strconv.Itoa(metrics.DaysOverdue(time.Time(b.DueDate), asOf)),
				"due_date":     s.formatter.Time(time.Time(b.DueDate)),
			},
		})
	}
	if len(recipients) == 0 {
		return &SendReport{Results: []SendResult{}}, nil
	}

	return s.Send(ctx, SendRequest{
		TemplateKey: format.TemplatePaymentOverdue,
		Recipients:  recipients,
	})
}

func toJSONMap(values map[string]string) datatypes.JSONMap {
	if len(values) == 0 {
		return nil
	}
	m := make(datatypes.JSONMap, len(values))
	for k, v := range values {
		m[k] = v
	}
	return m
}
