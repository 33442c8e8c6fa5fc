package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/geodash/internal/api"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type userInput struct {
	Name            string `json:"name"`
	ZipCode         string `json:"zip_code"`
	OriginalZipCode string `json:"original_zip_code"`
}

func (s *HTTPServer) fail(c *gin.Context, op string, err error) {
	cl := api.Classify(err)
	msg := err.Error()
	if cl.Reason == "" {
		s.logger.Error(c.Request.Context(), "request failed", "op", op, "error", err)
		msg = "internal error"
	} else {
		s.logger.Warn(c.Request.Context(), "request rejected", "op", op, "error", err)
	}
	c.JSON(cl.HTTPStatus, errorBody{Error: msg, Reason: cl.Reason})
}

func (s *HTTPServer) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": api.FromRecords(users)})
}

func (s *HTTPServer) getUser(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, api.FromRecord(u))
}

func (s *HTTPServer) createUser(c *gin.Context) {
	var in userInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	u, err := s.users.Create(c.Request.Context(), in.Name, in.ZipCode)
	if err != nil {
		s.fail(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, api.FromRecord(u))
}

func (s *HTTPServer) updateUser(c *gin.Context) {
	var in userInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	u, err := s.users.Update(c.Request.Context(), c.Param("id"), in.Name, in.ZipCode, in.OriginalZipCode)
	if err != nil {
		s.fail(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, api.FromRecord(u))
}

func (s *HTTPServer) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}
