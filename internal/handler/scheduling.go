package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuslog/internal/scheduling"
)

func (h *Handler) sendToAdmin(c *gin.Context) {
	var req scheduling.AdminRecord
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.scheduling.ForwardToAdmin(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent to admin", "record": rec})
}

func (h *Handler) adminAll(c *gin.Context) {
	res, err := h.scheduling.ListAdminRecords(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) scheduleMeeting(c *gin.Context) {
	var req scheduling.NewMeeting
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	m, err := h.scheduling.ScheduleMeeting(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "meeting scheduled", "meeting": m})
}

func (h *Handler) listMeetings(c *gin.Context) {
	res, err := h.scheduling.ListMeetings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) updateAttendance(c *gin.Context) {
	var req scheduling.AttendanceUpdate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.scheduling.UpdateAttendance(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance updated", "updated": n, "status": req.Status})
}
