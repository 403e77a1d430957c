package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/Lelcaren/mwangaza-rentals/internal/database/dbtest"
	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/export"
	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/messaging"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const routerSecret = "router-test-secret"

// routerNow is the pinned clock of the router tests.
var routerNow = time.Date(2024, time.July, 20, 9, 30, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	profiles services.ProfileService
}

// newTestServer wires the full stack over a throwaway sqlite database.
func newTestServer(t *testing.T, authRequired bool, sender messaging.Sender) *testServer {
	t.Helper()

	db := dbtest.New(t)
	log := logger.Nop()
	now := func() time.Time { return routerNow }
	settings := services.DefaultSettings()
	settings.Now = now

	propertyRepo := repository.NewPropertyRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	billRepo := repository.NewBillRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tx := repository.NewTransactor(db)
	formatter := format.New("en", "en-KE")
	if sender == nil {
		sender = messaging.NewLogSender(log)
	}

	profiles := services.NewProfileService(repository.NewProfileRepository(db), log)
	billing := services.NewBillingService(billRepo, tenantRepo, propertyRepo, tx, settings, log)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), tenantRepo, billRepo, sender, formatter, log)
	reports := services.NewReportService(propertyRepo, tenantRepo, billRepo, paymentRepo, settings, log)

	router := NewRouter(RouterConfig{
		Log:           log,
		CORS: config.CORSConfig{
			Origins:          []string{"http://localhost:5173"},
			Methods:          []string{"GET", "POST", "PATCH", "DELETE"},
			Headers:          []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		},
		Verifier:      auth.NewVerifier(routerSecret),
		AuthRequired:  authRequired,
		Health:        NewHealthHandler(db, "test", db.Dialect()),
		Me:            NewMeHandler(profiles),
		Properties:    NewPropertyHandler(services.NewPropertyService(propertyRepo, log)),
		Tenants:       NewTenantHandler(services.NewTenantService(tenantRepo, log)),
		Bills:         NewBillHandler(billing, now),
		Payments:      NewPaymentHandler(services.NewPaymentService(paymentRepo, billRepo, tx, settings, log)),
		Notifications: NewNotificationHandler(notifications, profiles, now),
		Profiles:      NewProfileHandler(profiles),
		Reports:       NewReportHandler(reports, formatter, now),
	})
	return &testServer{router: router, profiles: profiles}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data member of a success envelope.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var response apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response.Error
}

func (s *testServer) createProperty(t *testing.T, name string, kind models.PropertyType) models.Property {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/properties", map[string]interface{}{
		"name":          name,
		"type":          kind,
		"address":       "Ngong Road, Nairobi",
		"totalUnits":    10,
		"occupiedUnits": 8,
		"monthlyRent":   35000,
		"amenities":     []string{"Parking", "Security"},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Property
	decodeData(t, w, &p)
	return p
}

func (s *testServer) createTenant(t *testing.T, name, propertyID string, rent int64) models.Tenant {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/tenants", map[string]interface{}{
		"propertyId":  propertyID,
		"fullName":    name,
		"phone":       "+254712345678",
		"unit":        "B4",
		"monthlyRent": rent,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tn models.Tenant
	decodeData(t, w, &tn)
	return tn
}

func TestPropertyRoutes_Lifecycle(t *testing.T) {
	s := newTestServer(t, false, nil)

	created := s.createProperty(t, "Westlands Apartments", models.PropertyResidential)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.PropertyActive, created.Status)
	s.createProperty(t, "Kilimani Plaza", models.PropertyCommercial)

	// list with search
	w := s.do(t, http.MethodGet, "/api/v1/properties?q=WESTLANDS", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse[models.Property]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Data[0].ID)

	// list with filter
	w = s.do(t, http.MethodGet, "/api/v1/properties?type=commercial", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Kilimani Plaza", list.Data[0].Name)

	// partial update
	w = s.do(t, http.MethodPatch, "/api/v1/properties/"+created.ID, map[string]interface{}{"occupiedUnits": 10}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Property
	decodeData(t, w, &updated)
	assert.Equal(t, 10, updated.OccupiedUnits)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, []string{"Parking", "Security"}, []string(updated.Amenities))

	// get
	w = s.do(t, http.MethodGet, "/api/v1/properties/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// delete then 404
	w = s.do(t, http.MethodDelete, "/api/v1/properties/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/properties/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Property not found", decodeError(t, w).Message)
}

func TestPropertyRoutes_Errors(t *testing.T) {
	s := newTestServer(t, false, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"missing required fields", http.MethodPost, "/api/v1/properties", map[string]interface{}{"type": "residential"}, http.StatusBadRequest, apierrors.ErrValidation},
		{"occupied above total", http.MethodPost, "/api/v1/properties", map[string]interface{}{"name": "X", "type": "residential", "address": "Y", "totalUnits": 2, "occupiedUnits": 3}, http.StatusBadRequest, apierrors.ErrValidation},
		{"malformed body", http.MethodPost, "/api/v1/properties", `{"name":`, http.StatusBadRequest, apierrors.ErrBadRequest},
		{"wrong field type", http.MethodPost, "/api/v1/properties", `{"name":"X","totalUnits":"ten"}`, http.StatusBadRequest, apierrors.ErrBadRequest},
		{"update unknown id", http.MethodPatch, "/api/v1/properties/nope", map[string]interface{}{"name": "Z"}, http.StatusNotFound, apierrors.ErrNotFound},
		{"delete unknown id", http.MethodDelete, "/api/v1/properties/nope", nil, http.StatusNotFound, apierrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestValidationDetailsNameTheField(t *testing.T) {
	s := newTestServer(t, false, nil)

	w := s.do(t, http.MethodPost, "/api/v1/tenants", map[string]interface{}{"fullName": "Jane", "phone": "0712"}, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Contains(t, detail.Details, "monthlyRent")
	assert.NotEmpty(t, detail.RequestID)
}

func TestDeleteReferencedProperty_Conflict(t *testing.T) {
	s := newTestServer(t, false, nil)
	prop := s.createProperty(t, "Westlands Apartments", models.PropertyResidential)
	s.createTenant(t, "John Kamau", prop.ID, 35000)

	w := s.do(t, http.MethodDelete, "/api/v1/properties/"+prop.ID, nil, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrReferential, decodeError(t, w).Code)
}

func TestBillRoutes_GenerateAndMarkOverdue(t *testing.T) {
	s := newTestServer(t, false, nil)
	prop := s.createProperty(t, "Kilimani Plaza", models.PropertyCommercial)
	s.createTenant(t, "Wanjiru Shop", prop.ID, 85000)

	w := s.do(t, http.MethodPost, "/api/v1/bills/generate", GenerateRequest{Period: "2024-07", DueDay: 5}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.GenerateResult
	decodeData(t, w, &result)
	require.Len(t, result.Created, 1)
	bill := result.Created[0]
	assert.Equal(t, int64(85000), bill.Total)
	require.NotNil(t, bill.VAT)
	assert.Equal(t, int64(13600), *bill.VAT)
	assert.Equal(t, int64(98600), bill.GrandTotal)

	// a second run skips the tenant; an empty body defaults to the current month
	w = s.do(t, http.MethodPost, "/api/v1/bills/generate", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &result)
	assert.Equal(t, "2024-07", result.Period)
	assert.Empty(t, result.Created)
	assert.Len(t, result.Skipped, 1)

	w = s.do(t, http.MethodPost, "/api/v1/bills/mark-overdue?asOf=2024-07-01", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var marked MarkOverdueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &marked))
	assert.Equal(t, int64(0), marked.Updated)

	w = s.do(t, http.MethodPost, "/api/v1/bills/mark-overdue", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &marked))
	assert.Equal(t, "2024-07-20", marked.AsOf)
	assert.Equal(t, int64(1), marked.Updated)

	w = s.do(t, http.MethodGet, "/api/v1/bills?status=overdue", nil, "")
	var list ListResponse[models.Bill]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = s.do(t, http.MethodPost, "/api/v1/bills/mark-overdue?asOf=20-07-2024", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "asOf")
}

func TestPaymentRoutes_Transitions(t *testing.T) {
	s := newTestServer(t, false, nil)
	prop := s.createProperty(t, "Westlands Apartments", models.PropertyResidential)
	tenant := s.createTenant(t, "John Kamau", prop.ID, 35000)

	w := s.do(t, http.MethodPost, "/api/v1/bills", map[string]interface{}{
		"tenantId": tenant.ID,
		"billType": "monthly",
		"period":   "2024-07",
		"rent":     35000,
		"water":    1500,
		"dueDate":  "2024-07-25",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bill models.Bill
	decodeData(t, w, &bill)
	assert.Equal(t, int64(36500), bill.GrandTotal)
	assert.Nil(t, bill.VAT)

	w = s.do(t, http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"tenantId":      tenant.ID,
		"billingId":     bill.ID,
		"amount":        36500,
		"paymentMethod": "mobile-money",
		"mpesaReceipt":  "QJK7H2M9XP",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var payment models.Payment
	decodeData(t, w, &payment)
	assert.Equal(t, models.PaymentPending, payment.Status)

	w = s.do(t, http.MethodPatch, "/api/v1/payments/"+payment.ID, map[string]interface{}{"status": "completed"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/bills/"+bill.ID, nil, "")
	decodeData(t, w, &bill)
	assert.Equal(t, models.BillPaid, bill.Status)
	assert.NotNil(t, bill.PaidDate)

	w = s.do(t, http.MethodPatch, "/api/v1/payments/"+payment.ID, map[string]interface{}{"status": "pending"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrConflict, decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/v1/payments?q=qjk7", nil, "")
	var list ListResponse[models.Payment]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestNotificationRoutes_SendReportsEachRecipient(t *testing.T) {
	sender := messaging.SenderFunc(func(ctx context.Context, msg messaging.Message) (string, error) {
		if msg.Recipient == "+254700000000" {
			return "", &messaging.DeliveryError{Recipient: msg.Recipient, Channel: msg.Channel, Err: errors.New("number barred")}
		}
		return "dlv-" + msg.Recipient, nil
	})
	s := newTestServer(t, false, sender)

	w := s.do(t, http.MethodPost, "/api/v1/notifications/send", map[string]interface{}{
		"templateKey": format.TemplateRentDue,
		"variables":   map[string]string{"month": "August", "amount": "35,000", "due_date": "5 Aug"},
		"recipients": []map[string]interface{}{
			{"address": "+254712345678", "variables": map[string]string{"tenant_name": "John"}},
			{"address": "+254700000000", "variables": map[string]string{"tenant_name": "Mary"}},
		},
	}, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report services.SendReport
	decodeData(t, w, &report)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "dlv-+254712345678", report.Results[0].DeliveryID)
	assert.Contains(t, report.Results[1].Error, "number barred")

	// both attempts are stored; only read may change afterwards
	w = s.do(t, http.MethodGet, "/api/v1/notifications?deliveryStatus=failed", nil, "")
	var list ListResponse[models.Notification]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	id := list.Data[0].ID

	w = s.do(t, http.MethodPatch, "/api/v1/notifications/"+id, map[string]interface{}{"message": "edited"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPatch, "/api/v1/notifications/"+id, map[string]interface{}{"read": true}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = s.do(t, http.MethodPost, "/api/v1/notifications/send", map[string]interface{}{"body": "hello"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationRoutes_Reminders(t *testing.T) {
	s := newTestServer(t, false, nil)
	prop := s.createProperty(t, "Westlands Apartments", models.PropertyResidential)
	s.createTenant(t, "John Kamau", prop.ID, 35000)
	w := s.do(t, http.MethodPost, "/api/v1/bills/generate", GenerateRequest{Period: "2024-07", DueDay: 5}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s.do(t, http.MethodPost, "/api/v1/bills/mark-overdue", nil, "")

	w = s.do(t, http.MethodPost, "/api/v1/notifications/reminders", nil, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report services.SendReport
	decodeData(t, w, &report)
	assert.Equal(t, 1, report.Sent)
}

func TestTemplatesRoute(t *testing.T) {
	s := newTestServer(t, false, nil)

	w := s.do(t, http.MethodGet, "/api/v1/templates", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse[format.Template]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 5, list.Count)
	assert.Contains(t, list.Data[1].Variables, "days_overdue")
}

func TestReportRoutes(t *testing.T) {
	s := newTestServer(t, false, nil)
	prop := s.createProperty(t, "Kilimani Plaza", models.PropertyCommercial)
	s.createTenant(t, "Wanjiru Shop", prop.ID, 85000)
	s.do(t, http.MethodPost, "/api/v1/bills/generate", GenerateRequest{Period: "2024-07", DueDay: 5}, "")

	w := s.do(t, http.MethodGet, "/api/v1/reports/dashboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dashboard DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Equal(t, 1, dashboard.Data.Properties.Commercial)
	assert.Equal(t, int64(98600), dashboard.Data.OutstandingBalance)
	assert.Equal(t, "Ksh 98,600", dashboard.Display["outstandingBalance"])

	w = s.do(t, http.MethodGet, "/api/v1/reports/billing?period=2024-07", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var billing BillingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &billing))
	assert.Equal(t, int64(98600), billing.Data.TotalBilled)
	assert.Equal(t, int64(0), billing.Data.VATCollected, "VAT counts once the bill is paid")
	assert.Equal(t, "Ksh 98,600", billing.Display["outstanding"])

	w = s.do(t, http.MethodGet, "/api/v1/reports/billing?period=July", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/reports/billing/export?period=2024-07", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "billing-report-2024-07.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	got, err := wb.GetCellValue(export.SheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "98600", got)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, true, nil)
	token, err := auth.IssueToken(routerSecret, auth.User{ID: "8f0c6f8e-2d7b-4b59-9a43-6a3c1a0f2b11", Email: "owner@mwangaza.co.ke", FullName: "Grace Achieng", Role: models.RoleOwner}, time.Hour)
	require.NoError(t, err)

	// info stays public
	w := s.do(t, http.MethodGet, "/api/v1/info", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/properties", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "UNAUTHORIZED"))

	w = s.do(t, http.MethodGet, "/api/v1/properties", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// me without a stored profile
	w = s.do(t, http.MethodGet, "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "Grace Achieng", me.User.FullName)
	assert.Nil(t, me.Profile)

	// me with a profile
	w = s.do(t, http.MethodPost, "/api/v1/profiles", map[string]interface{}{
		"id":       "8f0c6f8e-2d7b-4b59-9a43-6a3c1a0f2b11",
		"fullName": "Grace Achieng",
		"role":     "owner",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/me", nil, token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.NotNil(t, me.Profile)
	assert.Equal(t, models.RoleOwner, me.Profile.Role)

	// sends are attributed to the caller's profile
	w = s.do(t, http.MethodPost, "/api/v1/notifications/send", map[string]interface{}{
		"body":       "Water will be off on Saturday",
		"recipients": []map[string]interface{}{{"address": "+254712345678"}},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/notifications?userId=8f0c6f8e-2d7b-4b59-9a43-6a3c1a0f2b11", nil, token)
	var list ListResponse[models.Notification]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestMe_Anonymous(t *testing.T) {
	s := newTestServer(t, false, nil)

	w := s.do(t, http.MethodGet, "/api/v1/me", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
