package handlers

import (
	"errors"
	"strconv"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/service"
	"github.com/micocomia/5902Group5/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LearnerHandler struct {
	learnerService *service.LearnerService
	logger         *zap.Logger
}

func NewLearnerHandler(learnerService *service.LearnerService, logger *zap.Logger) *LearnerHandler {
	return &LearnerHandler{
		learnerService: learnerService,
		logger:         logger,
	}
}

// LogEvent godoc
// @Summary Log a behavioral event
// @Description Append an event to the learner's log; only the newest 200 are kept
// @Tags learner
// @Accept json
// @Produce json
// @Param request body dto.LogEventRequest true "Event"
// @Security Bearer
// @Success 200 {object} dto.LogEventResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /events/log [post]
func (h *LearnerHandler) LogEvent(c *fiber.Ctx) error {
	var req dto.LogEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.UserID != "" && !ownsUser(c, req.UserID) {
		return forbidden(c)
	}

	resp, err := h.learnerService.LogEvent(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Failed to log event", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log event",
		})
	}
	return c.JSON(resp)
}

// ListEvents godoc
// @Summary List behavioral events
// @Tags learner
// @Produce json
// @Param user_id path string true "User ID"
// @Security Bearer
// @Success 200 {object} dto.EventsResponse
// @Failure 403 {object} map[string]string
// @Router /events/{user_id} [get]
func (h *LearnerHandler) ListEvents(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	resp, err := h.learnerService.ListEvents(c.UserContext(), userID)
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list events",
		})
	}
	return c.JSON(resp)
}

// GetProfile godoc
// @Summary Get learner profiles
// @Description Without goal_id every goal's profile is returned
// @Tags learner
// @Produce json
// @Param user_id path string true "User ID"
// @Param goal_id query int false "Goal ID"
// @Security Bearer
// @Success 200 {object} dto.ProfileResponse
// @Success 200 {object} dto.ProfilesResponse
// @Failure 404 {object} map[string]string
// @Router /profile/{user_id} [get]
func (h *LearnerHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	goalID, err := optionalGoalID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "goal_id must be an integer",
		})
	}

	var resp any
	if goalID != nil {
		resp, err = h.learnerService.GetProfile(c.UserContext(), userID, *goalID)
	} else {
		resp, err = h.learnerService.ListProfiles(c.UserContext(), userID)
	}
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			msg := "No profile found for this user_id"
			if goalID != nil {
				msg = "No profile found for this user_id and goal_id"
			}
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": msg,
			})
		}
		h.logger.Error("Failed to get profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get profile",
		})
	}
	return c.JSON(resp)
}

// PutProfile godoc
// @Summary Store a learner profile
// @Tags learner
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param goal_id path int true "Goal ID"
// @Param request body dto.UpsertProfileRequest true "Profile"
// @Security Bearer
// @Success 200 {object} dto.OKResponse
// @Failure 400 {object} map[string]string
// @Router /profile/{user_id}/{goal_id} [put]
func (h *LearnerHandler) PutProfile(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	goalID, err := c.ParamsInt("goal_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "goal_id must be an integer",
		})
	}

	var req dto.UpsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.learnerService.UpsertProfile(c.UserContext(), userID, goalID, req.LearnerProfile); err != nil {
		h.logger.Error("Failed to store profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store profile",
		})
	}
	return c.JSON(dto.OKResponse{OK: true})
}

// GetUserState godoc
// @Summary Get UI state
// @Tags learner
// @Produce json
// @Param user_id path string true "User ID"
// @Security Bearer
// @Success 200 {object} dto.UserStateResponse
// @Failure 404 {object} map[string]string
// @Router /user-state/{user_id} [get]
func (h *LearnerHandler) GetUserState(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	state, err := h.learnerService.GetUserState(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserStateMissing) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No state found for this user_id",
			})
		}
		h.logger.Error("Failed to get user state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get user state",
		})
	}
	return c.JSON(dto.UserStateResponse{State: state})
}

// PutUserState godoc
// @Summary Replace UI state
// @Tags learner
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body dto.UserStateRequest true "State"
// @Security Bearer
// @Success 200 {object} dto.OKResponse
// @Router /user-state/{user_id} [put]
func (h *LearnerHandler) PutUserState(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	var req dto.UserStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.learnerService.PutUserState(c.UserContext(), userID, req.State); err != nil {
		h.logger.Error("Failed to store user state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store user state",
		})
	}
	return c.JSON(dto.OKResponse{OK: true})
}

// DeleteUserState godoc
// @Summary Delete UI state
// @Tags learner
// @Produce json
// @Param user_id path string true "User ID"
// @Security Bearer
// @Success 200 {object} dto.OKResponse
// @Router /user-state/{user_id} [delete]
func (h *LearnerHandler) DeleteUserState(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	if err := h.learnerService.DeleteUserState(c.UserContext(), userID); err != nil {
		h.logger.Error("Failed to delete user state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user state",
		})
	}
	return c.JSON(dto.OKResponse{OK: true})
}

// BehavioralMetrics godoc
// @Summary Behavioral metrics
// @Description Session statistics derived from the stored UI state
// @Tags learner
// @Produce json
// @Param user_id path string true "User ID"
// @Param goal_id query int false "Goal ID"
// @Security Bearer
// @Success 200 {object} dto.BehavioralMetricsResponse
// @Failure 404 {object} map[string]string
// @Router /behavioral-metrics/{user_id} [get]
func (h *LearnerHandler) BehavioralMetrics(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !ownsUser(c, userID) {
		return forbidden(c)
	}

	goalID, err := optionalGoalID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "goal_id must be an integer",
		})
	}

	resp, err := h.learnerService.BehavioralMetrics(c.UserContext(), userID, goalID)
	if err != nil {
		if errors.Is(err, service.ErrUserStateMissing) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No state found for this user_id",
			})
		}
		h.logger.Error("Failed to compute behavioral metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute behavioral metrics",
		})
	}
	return c.JSON(resp)
}

// ownsUser reports whether the path or body user is the authenticated one.
func ownsUser(c *fiber.Ctx, userID string) bool {
	return userID != "" && userID == middleware.Username(c)
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Access to another user's data is not allowed",
	})
}

func optionalGoalID(c *fiber.Ctx) (*int, error) {
	raw := c.Query("goal_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
