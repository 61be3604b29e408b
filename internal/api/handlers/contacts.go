package handlers

import (
	"net/http"

	"contactsapi/internal/api/middleware"
	"contactsapi/internal/contacts"
	"contactsapi/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContactHandler handles HTTP requests for the authenticated user's contacts
type ContactHandler struct {
	contactService *contacts.Service
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *contacts.Service) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

type listContactsQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

type searchContactsQuery struct {
	Query string `form:"q"`
}

type birthdaysQuery struct {
	Days int `form:"days,default=7"`
}

func parseContactID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid contact id"})
		return uuid.Nil, false
	}
	return id, true
}

// ListContacts godoc
// @Summary List contacts
// @Description List the user's contacts ordered by last name, first name
// @Tags contacts
// @Produce json
// @Param skip query int false "Number of contacts to skip" default(0)
// @Param limit query int false "Maximum number of contacts to return (1-100)" default(100)
// @Success 200 {array} models.Contact
// @Failure 400 {object} models.ErrorResponse "Invalid pagination"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(c *gin.Context) {
	var q listContactsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUserFromContext(c)
	list, err := h.contactService.List(c.Request.Context(), user.ID, q.Skip, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateContact godoc
// @Summary Create contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body models.CreateContactRequest true "Contact details"
// @Success 201 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUserFromContext(c)
	contact, err := h.contactService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// SearchContacts godoc
// @Summary Search contacts
// @Description Case-insensitive substring match over first name, last name and email
// @Tags contacts
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} models.Contact
// @Failure 400 {object} models.ErrorResponse "Missing query"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /contacts/search [get]
func (h *ContactHandler) SearchContacts(c *gin.Context) {
	var q searchContactsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUserFromContext(c)
	list, err := h.contactService.Search(c.Request.Context(), user.ID, q.Query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// UpcomingBirthdays godoc
// @Summary Upcoming birthdays
// @Description Contacts whose birthday falls within the next days, today included
// @Tags contacts
// @Produce json
// @Param days query int false "Window in days (0-365)" default(7)
// @Success 200 {array} models.Contact
// @Failure 400 {object} models.ErrorResponse "Invalid window"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /contacts/birthdays [get]
func (h *ContactHandler) UpcomingBirthdays(c *gin.Context) {
	var q birthdaysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUserFromContext(c)
	list, err := h.contactService.UpcomingBirthdays(c.Request.Context(), user.ID, q.Days)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetContact godoc
// @Summary Get contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse "Invalid ID"
// @Failure 404 {object} models.ErrorResponse "Contact not found"
// @Security BearerAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}

	user := middleware.GetUserFromContext(c)
	contact, err := h.contactService.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// UpdateContact godoc
// @Summary Update contact
// @Description Update the given fields of a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body models.UpdateContactRequest true "Fields to update"
// @Success 200 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Contact not found"
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}

	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUserFromContext(c)
	contact, err := h.contactService.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary Delete contact
// @Tags contacts
// @Param id path string true "Contact ID"
// @Success 204 "Contact deleted"
// @Failure 400 {object} models.ErrorResponse "Invalid ID"
// @Failure 404 {object} models.ErrorResponse "Contact not found"
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}

	user := middleware.GetUserFromContext(c)
	if err := h.contactService.Delete(c.Request.Context(), user.ID, id); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
