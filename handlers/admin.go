package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"food-ordering-api/models"
)

func queryID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + c.Query(name)})
		return 0, false
	}
	return uint(id), true
}

// AdminGetAllUsers lists users, optionally by ?role=
func (h *Handlers) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary := map[models.UserRole]int{}
	for _, u := range users {
		summary[u.Role]++
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "by_role": summary, "users": users})
}

// AdminGetDrivers lists driver profiles with their current delivering flag
func (h *Handlers) AdminGetDrivers(c *gin.Context) {
	drivers, err := h.Store.Drivers.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	busy := 0
	for _, d := range drivers {
		if d.IsDelivering {
			busy++
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(drivers), "delivering": busy, "drivers": drivers})
}
