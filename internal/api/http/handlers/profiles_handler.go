package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campusmatch/internal/api/dto"
	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/service"
)

// ProfilesHandler serves member profiles.
type ProfilesHandler struct {
	profiles *service.ProfileService
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles *service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// Get handles GET /profiles/:id. Mounted behind the optional gate.
func (h *ProfilesHandler) Get(c *fiber.Ctx) error {
	var viewerID string
	if caller, ok := auth.CallerFromFiber(c); ok {
		viewerID = caller.UserID
	}

	profile, err := h.profiles.Get(c.UserContext(), viewerID, c.Params("id"))
	if err != nil {
		return err
	}

	resp := dto.ProfileResponse{
		ID:      profile.User.ID,
		Name:    profile.User.Name,
		College: profile.User.College,
	}
	if rel := profile.Relation; rel != nil {
		isSelf, matched := rel.IsSelf, rel.Matched
		resp.IsSelf = &isSelf
		resp.Matched = &matched
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Contact handles GET /profiles/:id/contact for premium members.
func (h *ProfilesHandler) Contact(c *fiber.Ctx) error {
	caller, _ := auth.CallerFromFiber(c)
	profile, err := h.profiles.Get(c.UserContext(), caller.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ContactResponse{ID: profile.User.ID, Email: profile.User.Email}})
}
