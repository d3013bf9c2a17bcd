package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/api"
	"github.com/sanosuguru/go-calendar-booking/internal/application"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
)

const (
	// requestTimeLayout はリクエストで受け付ける日時の形式（UTC として解釈）
	requestTimeLayout = "2006-01-02 15:04:05"
	weekDateLayout    = "2006-01-02"
)

type ReservationHandler struct {
	service   ReservationServiceInterface
	directory DirectoryServiceInterface
	now       func() time.Time
}

func NewReservationHandler(s ReservationServiceInterface, d DirectoryServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s, directory: d, now: time.Now}
}

type CreateReservationRequest struct {
	OwnerID     string  `json:"owner_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientID    string  `json:"client_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440001"`
	Title       string  `json:"title" validate:"required,max=255" example:"定例ミーティング"`
	Description *string `json:"description" validate:"omitempty,max=2000" example:"第3会議室"`
	StartTime   string  `json:"start_time" validate:"required" example:"2025-08-05 10:00:00"`
	EndTime     string  `json:"end_time" validate:"required" example:"2025-08-05 11:00:00"`
}

type ReservationResponse struct {
	ID          string        `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title       string        `json:"title" example:"定例ミーティング"`
	Description *string       `json:"description"`
	StartTime   string        `json:"start_time" example:"2025-08-05T10:00:00Z"`
	EndTime     string        `json:"end_time" example:"2025-08-05T11:00:00Z"`
	Owner       PartyResponse `json:"owner"`
	Client      PartyResponse `json:"client"`
	CreatedAt   string        `json:"created_at" example:"2025-08-01T09:00:00Z"`
}

type ReservationDataResponse struct {
	Data ReservationResponse `json:"data"`
}

type WeekMeta struct {
	Week      string `json:"week" example:"2025-08-06"`
	Total     int    `json:"total" example:"3"`
	WeekStart string `json:"week_start" example:"2025-08-04"`
	WeekEnd   string `json:"week_end" example:"2025-08-10"`
}

type WeekResponse struct {
	Data []ReservationResponse `json:"data"`
	Meta WeekMeta              `json:"meta"`
}

func toReservationResponse(v *reservation.View) ReservationResponse {
	return ReservationResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		StartTime:   v.StartAt.UTC().Format(time.RFC3339),
		EndTime:     v.EndAt.UTC().Format(time.RFC3339),
		Owner:       PartyResponse{ID: v.OwnerID, Name: v.OwnerName},
		Client:      PartyResponse{ID: v.ClientID, Name: v.ClientName},
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseRequestTime は "2006-01-02 15:04:05"（UTC）または RFC3339 の日時を読む
func parseRequestTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(requestTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Create godoc
// @Summary 予約を作成
// @Description オーナーの他の予約と重ならない場合のみ予約を作成します
// @Tags reservations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "冪等性キー"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationDataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 422 {object} api.ValidationErrorResponse "入力エラーまたは重複"
// @Failure 500 {object} api.ErrorResponse
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	// 再送は時刻や重複の検証より先に作成済みの予約を返す
	idempotencyKey := c.Request().Header.Get(api.HeaderIdempotencyKey)
	if idempotencyKey != "" {
		if view, ok := h.service.ReplayIdempotent(ctx, idempotencyKey); ok {
			return c.JSON(http.StatusCreated, ReservationDataResponse{Data: toReservationResponse(view)})
		}
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	fields := api.FieldErrors{}
	startAt, endAt := h.validateInterval(req, fields)
	if err := h.validateParties(ctx, req, fields); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "予約の作成に失敗しました").SetInternal(err)
	}
	if len(fields) > 0 {
		return api.NewValidationError(fields)
	}

	// ロックなしの事前チェックで早めに利用者へ知らせる
	if err := h.service.CheckOverlap(ctx, req.OwnerID, startAt, endAt, ""); err != nil {
		if errors.Is(err, reservation.ErrAdvisoryConflict) {
			return api.NewFieldError("owner_id", reservation.OverlapMessage)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "予約の作成に失敗しました").SetInternal(err)
	}

	res, err := h.service.CreateReservation(ctx, application.CreateReservationInput{
		OwnerID:        req.OwnerID,
		ClientID:       req.ClientID,
		Title:          req.Title,
		Description:    req.Description,
		StartAt:        startAt,
		EndAt:          endAt,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return createErrorResponse(err)
	}

	view, err := h.service.GetReservation(ctx, res.ID)
	if err != nil {
		logger.FromContext(ctx).Warn("作成した予約の再取得に失敗しました", zap.String("reservation_id", res.ID), zap.Error(err))
		view = &reservation.View{Reservation: res}
	}
	return c.JSON(http.StatusCreated, ReservationDataResponse{Data: toReservationResponse(view)})
}

func (h *ReservationHandler) validateInterval(req CreateReservationRequest, fields api.FieldErrors) (time.Time, time.Time) {
	startAt, startErr := parseRequestTime(req.StartTime)
	if startErr != nil {
		fields.Add("start_time", "開始時刻の形式が不正です")
	}
	endAt, endErr := parseRequestTime(req.EndTime)
	if endErr != nil {
		fields.Add("end_time", "終了時刻の形式が不正です")
	}
	if startErr == nil && startAt.Before(h.now()) {
		fields.Add("start_time", "開始時刻は現在以降である必要があります")
	}
	if startErr == nil && endErr == nil && !endAt.After(startAt) {
		fields.Add("end_time", reservation.ErrInvalidInterval.Error())
	}
	return startAt, endAt
}

func (h *ReservationHandler) validateParties(ctx context.Context, req CreateReservationRequest, fields api.FieldErrors) error {
	ok, err := h.directory.OwnerExists(ctx, req.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		fields.Add("owner_id", "選択されたオーナーは存在しません")
	}
	ok, err = h.directory.ClientExists(ctx, req.ClientID)
	if err != nil {
		return err
	}
	if !ok {
		fields.Add("client_id", "選択されたクライアントは存在しません")
	}
	return nil
}

func createErrorResponse(err error) error {
	switch {
	case errors.Is(err, reservation.ErrOverlapConflict):
		return api.NewFieldError("owner_id", reservation.OverlapMessage)
	case errors.Is(err, reservation.ErrOwnerIDRequired):
		return api.NewFieldError("owner_id", err.Error())
	case errors.Is(err, reservation.ErrClientIDRequired):
		return api.NewFieldError("client_id", err.Error())
	case errors.Is(err, reservation.ErrTitleRequired):
		return api.NewFieldError("title", err.Error())
	case errors.Is(err, reservation.ErrInvalidInterval):
		return api.NewFieldError("end_time", err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "予約の作成に失敗しました").SetInternal(err)
	}
}

// ListWeek godoc
// @Summary 週の予約一覧を取得
// @Description 指定日を含む週（月曜から日曜）の予約を開始時刻順に返します
// @Tags reservations
// @Produce json
// @Param week query string true "週に含まれる日付 (YYYY-MM-DD)"
// @Success 200 {object} WeekResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) ListWeek(c echo.Context) error {
	param := c.QueryParam("week")
	if param == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "週パラメータは必須です")
	}
	day, err := time.ParseInLocation(weekDateLayout, param, time.UTC)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付の形式が不正です")
	}

	views, week, err := h.service.ListWeek(c.Request().Context(), day)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "予約一覧の取得に失敗しました").SetInternal(err)
	}

	data := make([]ReservationResponse, len(views))
	for i, v := range views {
		data[i] = toReservationResponse(v)
	}
	return c.JSON(http.StatusOK, WeekResponse{
		Data: data,
		Meta: WeekMeta{
			Week:      param,
			Total:     len(data),
			WeekStart: week.Start.Format(weekDateLayout),
			WeekEnd:   week.End.AddDate(0, 0, -1).Format(weekDateLayout),
		},
	})
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationDataResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	v, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "予約の取得に失敗しました").SetInternal(err)
	}
	return c.JSON(http.StatusOK, ReservationDataResponse{Data: toReservationResponse(v)})
}
