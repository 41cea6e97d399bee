package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"proofroom.app/engine/internal/http/handler"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/service"
)

var _ = Describe("RoomHandler", func() {
	var (
		router *gin.Engine
		svc    *mockRoomService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockRoomService{}
		h := handler.NewRoomHandler(svc)
		router.POST("/rooms", h.Create)
		router.GET("/rooms", h.List)
		router.GET("/rooms/:id", h.Get)
	})

	Describe("Create", func() {
		It("returns 201 with the created room", func() {
			svc.createRoomFn = func(_ context.Context, params service.CreateRoomParams) (*model.Room, error) {
				return &model.Room{
					ID:         "room-1",
					Slug:       "hero-banner-room-1",
					Title:      params.Title,
					ProducerID: params.ProducerID,
					ConsumerID: params.ConsumerID,
					CreatedAt:  time.Now().UTC(),
				}, nil
			}

			body, _ := json.Marshal(map[string]string{
				"title":       "Hero banner",
				"producer_id": "artist",
				"consumer_id": "client",
			})
			req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("room-1"))
			Expect(resp["slug"]).To(Equal("hero-banner-room-1"))
		})

		It("returns 400 when required fields are missing", func() {
			body, _ := json.Marshal(map[string]string{"title": "Hero banner"})
			req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the service fails", func() {
			svc.createRoomFn = func(_ context.Context, _ service.CreateRoomParams) (*model.Room, error) {
				return nil, errors.New("boom")
			}

			body, _ := json.Marshal(map[string]string{
				"title":       "Hero banner",
				"producer_id": "artist",
				"consumer_id": "client",
			})
			req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an unknown room", func() {
			svc.getRoomFn = func(_ context.Context, _ string) (*model.Room, error) {
				return nil, service.ErrRoomNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/rooms/missing", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("List", func() {
		It("requires participant_id", func() {
			req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns the participant's rooms", func() {
			svc.listRoomsFn = func(_ context.Context, participantID string) ([]model.Room, error) {
				Expect(participantID).To(Equal("artist"))
				return []model.Room{{ID: "room-1"}, {ID: "room-2"}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/rooms?participant_id=artist", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Rooms []map[string]any `json:"rooms"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Rooms).To(HaveLen(2))
		})
	})
})
