package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"campuslog/internal/apperr"
	"campuslog/internal/complaints"
)

func (h *Handler) createLogEntry(c *gin.Context) {
	var req complaints.NewLogEntry
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	entry, err := h.complaints.CreateLogEntry(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "log entry created", "complaint_id": entry.ComplaintID, "entry": entry})
}

func (h *Handler) submitReason(c *gin.Context) {
	var req struct {
		ComplaintCode flexID `json:"complaintCode"`
		ComplaintID   flexID `json:"complaint_id"`
		Reason        string `json:"reason"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	id := int64(req.ComplaintCode)
	if id == 0 {
		id = int64(req.ComplaintID)
	}
	rec, err := h.complaints.SubmitReason(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reason submitted", "reason": rec})
}

func (h *Handler) listRevoked(c *gin.Context) {
	res, err := h.complaints.ListReasons(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateRevoked(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.complaints.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated", "result": res})
}

func (h *Handler) supportLogs(c *gin.Context) {
	res, err := h.complaints.ListUnidentified(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) sendToMentor(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	file, header, err := c.Request.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "attachment too large"})
			return
		}
		h.fail(c, apperr.Validation("video file is required"))
		return
	}
	defer file.Close()

	id, err := strconv.ParseInt(strings.TrimSpace(c.Request.FormValue("complaint_id")), 10, 64)
	if err != nil {
		h.fail(c, apperr.Validation("complaint_id is required"))
		return
	}
	item, err := h.complaints.ForwardToMentor(c.Request.Context(), complaints.ForwardRequest{
		ComplaintID: id,
		Filename:    header.Filename,
		Body:        file,
		Description: c.Request.FormValue("description"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent to mentor", "item": item})
}

func (h *Handler) mentorQueue(c *gin.Context) {
	res, err := h.complaints.ListMentorQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) mentorSubmit(c *gin.Context) {
	var req struct {
		ComplaintID flexID `json:"complaint_id"`
		StudentID   string `json:"S_ID"`
		StudentName string `json:"student_name"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.complaints.ResolveIdentity(c.Request.Context(), int64(req.ComplaintID), req.StudentID, req.StudentName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "complaint updated", "updated": n})
}

func (h *Handler) studentComplaints(c *gin.Context) {
	res, err := h.complaints.StudentComplaints(c.Request.Context(), c.Param("S_ID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) updateStudentComplaint(c *gin.Context) {
	id, err := pathID(c, "complaint_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.complaints.UpdateStudentComplaintStatus(c.Request.Context(), c.Param("sid"), id, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated", "complaint_id": id, "status": strings.TrimSpace(req.Status)})
}

func (h *Handler) complaintDetail(c *gin.Context) {
	id, err := pathID(c, "complaint_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.complaints.ComplaintDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
