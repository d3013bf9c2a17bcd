package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type DirectoryHandler struct {
	service DirectoryServiceInterface
}

func NewDirectoryHandler(s DirectoryServiceInterface) *DirectoryHandler {
	return &DirectoryHandler{service: s}
}

// PartyResponse はオーナーとクライアントの共通レスポンス
type PartyResponse struct {
	ID   string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name string `json:"name" example:"佐藤"`
}

// ListOwners godoc
// @Summary オーナー一覧を取得
// @Tags owners
// @Produce json
// @Success 200 {array} PartyResponse
// @Router /owners [get]
func (h *DirectoryHandler) ListOwners(c echo.Context) error {
	owners, err := h.service.ListOwners(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "オーナー一覧の取得に失敗しました").SetInternal(err)
	}
	resp := make([]PartyResponse, len(owners))
	for i, o := range owners {
		resp[i] = PartyResponse{ID: o.ID, Name: o.Name}
	}
	return c.JSON(http.StatusOK, resp)
}

// ListClients godoc
// @Summary クライアント一覧を取得
// @Tags clients
// @Produce json
// @Success 200 {array} PartyResponse
// @Router /clients [get]
func (h *DirectoryHandler) ListClients(c echo.Context) error {
	clients, err := h.service.ListClients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "クライアント一覧の取得に失敗しました").SetInternal(err)
	}
	resp := make([]PartyResponse, len(clients))
	for i, cl := range clients {
		resp[i] = PartyResponse{ID: cl.ID, Name: cl.Name}
	}
	return c.JSON(http.StatusOK, resp)
}
