package deviceControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

type NamedInput struct {
	Name string `json:"name"`
}

// GET /api/<kind>
func ListNamed(store *catalog.Store, kind catalog.NamedKind, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.ListNamed(c.Request.Context(), kind)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// POST /api/<kind>
func CreateNamed(store *catalog.Store, kind catalog.NamedKind, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input NamedInput
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		entry, err := store.CreateNamed(c.Request.Context(), kind, input.Name)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// GET /api/<kind>/:id
func GetNamed(store *catalog.Store, kind catalog.NamedKind, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		entry, err := store.GetNamed(c.Request.Context(), kind, id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// PUT /api/<kind>/:id
func UpdateNamed(store *catalog.Store, kind catalog.NamedKind, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		var input NamedInput
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		entry, err := store.UpdateNamed(c.Request.Context(), kind, id, input.Name)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// DELETE /api/<kind>/:id
func DeleteNamed(store *catalog.Store, kind catalog.NamedKind, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if err := store.DeleteNamed(c.Request.Context(), kind, id); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, string(kind)+" deleted successfully")
	}
}
