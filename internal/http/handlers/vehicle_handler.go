// Vehicle HTTP handlers.
//
//   - GET    /vehicles        (list; q, make, condition, bodyType, featured, sort, limit)
//   - GET    /vehicles/{id}
//   - POST   /vehicles
//   - PATCH  /vehicles/{id}   (partial update; the path id always wins)
//   - DELETE /vehicles/{id}
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/services"
)

// DeleteResponse confirms a vehicle delete.
type DeleteResponse struct {
	Deleted bool `json:"deleted" example:"true"`
}

// ListVehicles godoc
// @ID          listVehicles
// @Summary     List inventory
// @Tags        Vehicles
// @Produce     json
// @Param       q         query string false "Free-text search"
// @Param       make      query string false "Make (case-insensitive)"
// @Param       condition query string false "New|Used|Certified"
// @Param       bodyType  query string false "Body type"
// @Param       featured  query bool   false "Featured only"
// @Param       sort      query string false "newest|oldest|price_asc|price_desc|year_desc|mileage_asc"
// @Param       limit     query int    false "Max rows"
// @Success     200 {array} domain.Vehicle
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /vehicles [get]
func (h *Handlers) ListVehicles(c *gin.Context) {
	featured, valid := optionalBool(c, "featured")
	if !valid {
		return
	}
	all, err := h.vehicles.List(c.Request.Context())
	if err != nil {
		degrade(c, "vehicles", err)
		ok(c, http.StatusOK, []domain.Vehicle{})
		return
	}
	ok(c, http.StatusOK, services.FilterVehicles(all, services.VehicleQuery{
		ListQuery: h.listQuery(c),
		Make:      strings.TrimSpace(c.Query("make")),
		Condition: strings.TrimSpace(c.Query("condition")),
		BodyType:  strings.TrimSpace(c.Query("bodyType")),
		Featured:  featured,
	}))
}

// GetVehicle godoc
// @ID          getVehicle
// @Summary     Get one vehicle
// @Tags        Vehicles
// @Produce     json
// @Param       id path string true "Vehicle ID"
// @Success     200 {object} domain.Vehicle
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /vehicles/{id} [get]
func (h *Handlers) GetVehicle(c *gin.Context) {
	v, err := h.vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, msgVehicleMissing)
		return
	}
	ok(c, http.StatusOK, v)
}

// CreateVehicle godoc
// @ID          createVehicle
// @Summary     Add a vehicle
// @Description price, mileage and year accept numbers or form strings like "$18,500".
// @Tags        Vehicles
// @Accept      json
// @Produce     json
// @Param       body body domain.VehicleInput true "Vehicle"
// @Success     201 {object} domain.Vehicle
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /vehicles [post]
func (h *Handlers) CreateVehicle(c *gin.Context) {
	var in domain.VehicleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	v, err := h.vehicles.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, msgVehicleMissing)
		return
	}
	c.Header("Location", c.FullPath()+"/"+v.ID)
	ok(c, http.StatusCreated, v)
}

// UpdateVehicle godoc
// @ID          updateVehicle
// @Summary     Partially update a vehicle
// @Description Only listed fields are merged; an id in the body is ignored.
// @Tags        Vehicles
// @Accept      json
// @Produce     json
// @Param       id   path string              true "Vehicle ID"
// @Param       body body domain.VehiclePatch true "Fields to change"
// @Success     200 {object} domain.Vehicle
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /vehicles/{id} [patch]
func (h *Handlers) UpdateVehicle(c *gin.Context) {
	var p domain.VehiclePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	v, err := h.vehicles.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failErr(c, err, msgVehicleMissing)
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteVehicle godoc
// @ID          deleteVehicle
// @Summary     Delete a vehicle
// @Tags        Vehicles
// @Produce     json
// @Param       id path string true "Vehicle ID"
// @Success     200 {object} handlers.DeleteResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /vehicles/{id} [delete]
func (h *Handlers) DeleteVehicle(c *gin.Context) {
	if err := h.vehicles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, msgVehicleMissing)
		return
	}
	ok(c, http.StatusOK, DeleteResponse{Deleted: true})
}
