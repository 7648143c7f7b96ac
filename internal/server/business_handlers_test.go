package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservo/internal/models"

	"github.com/gofiber/fiber/v2"
)

func asUser(userID uint, handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return handler(c)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestRegisterBusinessHandler(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := seedUser(t, db, "owner", false)

	app := fiber.New()
	app.Post("/businesses", asUser(owner.ID, s.RegisterBusiness))

	t.Run("creates a pending listing", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/businesses", `{"name":"Corner Cafe","description":"coffee"}`)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var business models.Business
		if err := json.NewDecoder(resp.Body).Decode(&business); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if business.Status != models.BusinessStatusPending {
			t.Errorf("status = %q, want pending", business.Status)
		}
	})

	t.Run("blank name is 400", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/businesses", `{"name":"  "}`)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestGetBusinessesHandler(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := seedUser(t, db, "owner", false)
	seedBusiness(t, db, owner.ID, models.BusinessStatusApproved)
	seedBusiness(t, db, owner.ID, models.BusinessStatusSuspended)
	seedBusiness(t, db, owner.ID, models.BusinessStatusPending)

	app := fiber.New()
	app.Get("/businesses", s.GetBusinesses)

	req := httptest.NewRequest(http.MethodGet, "/businesses", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var businesses []models.Business
	if err := json.NewDecoder(resp.Body).Decode(&businesses); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(businesses) != 1 {
		t.Fatalf("public directory must only list approved, got %d entries", len(businesses))
	}
	if businesses[0].Status != models.BusinessStatusApproved {
		t.Errorf("status = %q, want approved", businesses[0].Status)
	}
}

func TestGetBusinessHandler_NotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	app := fiber.New()
	app.Get("/businesses/:id", s.GetBusiness)

	req := httptest.NewRequest(http.MethodGet, "/businesses/9999", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateUnsuspensionRequestHandler(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := seedUser(t, db, "owner", false)
	stranger := seedUser(t, db, "stranger", false)
	business := seedBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

	app := fiber.New()
	app.Post("/owner/businesses/:id/unsuspension-request", asUser(owner.ID, s.CreateUnsuspensionRequest))
	app.Post("/stranger/businesses/:id/unsuspension-request", asUser(stranger.ID, s.CreateUnsuspensionRequest))

	t.Run("stranger is 403", func(t *testing.T) {
		req := jsonRequest(http.MethodPost,
			fmt.Sprintf("/stranger/businesses/%d/unsuspension-request", business.ID),
			`{"reason":"please"}`)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("owner files an appeal", func(t *testing.T) {
		req := jsonRequest(http.MethodPost,
			fmt.Sprintf("/owner/businesses/%d/unsuspension-request", business.ID),
			`{"reason":"we fixed the billing issue"}`)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var returned models.Business
		if err := json.NewDecoder(resp.Body).Decode(&returned); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if returned.UnsuspensionRequestedAt == nil {
			t.Error("mirror field UnsuspensionRequestedAt not set on returned business")
		}

		var appeal models.ModerationRequest
		if err := db.Where("business_id = ? AND status = ?",
			business.ID, models.ModerationRequestStatusPending).First(&appeal).Error; err != nil {
			t.Fatalf("reload appeal: %v", err)
		}
		if appeal.RequestType != models.ModerationRequestTypeUnsuspension {
			t.Errorf("request type = %q, want unsuspension", appeal.RequestType)
		}
	})

	t.Run("second appeal inside the cooldown is 429 with Retry-After", func(t *testing.T) {
		req := jsonRequest(http.MethodPost,
			fmt.Sprintf("/owner/businesses/%d/unsuspension-request", business.ID),
			`{"reason":"asking again"}`)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
		if resp.Header.Get("Retry-After") == "" {
			t.Error("expected a Retry-After header")
		}
	})
}

func TestGetBusinessRequestsHandler(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := seedUser(t, db, "owner", false)
	stranger := seedUser(t, db, "stranger", false)
	business := seedBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

	record, err := models.NewSuspensionRecord(business, owner, 1, "fraud", time.Now().UTC())
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("create record: %v", err)
	}

	app := fiber.New()
	app.Get("/owner/businesses/:id/requests", asUser(owner.ID, s.GetBusinessRequests))
	app.Get("/stranger/businesses/:id/requests", asUser(stranger.ID, s.GetBusinessRequests))

	t.Run("owner sees the history", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/owner/businesses/%d/requests", business.ID), nil)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var requests []models.ModerationRequest
		if err := json.NewDecoder(resp.Body).Decode(&requests); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(requests) != 1 {
			t.Errorf("expected the suspension audit record, got %d rows", len(requests))
		}
	})

	t.Run("stranger is 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/stranger/businesses/%d/requests", business.ID), nil)
		resp, _ := app.Test(req)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
	})
}
