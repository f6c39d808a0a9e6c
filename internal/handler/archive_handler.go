package handler

import (
	"fmt"
	"net/http"
	"time"

	"meterstock/internal/middleware"
	"meterstock/internal/model"
	"meterstock/internal/service"
	"meterstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type ArchiveHandler struct {
	archiveService service.ArchiveService
}

func NewArchiveHandler(archiveService service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

func (h *ArchiveHandler) RegisterRoutes(router *gin.RouterGroup) {
	exports := router.Group("/api/exports", middleware.RequireRole(model.RoleManager))
	{
		exports.GET("/csv", h.ExportCSV)
		exports.GET("/xlsx", h.ExportXLSX)
	}

	archives := router.Group("/api/archives", middleware.RequireRole(model.RoleManager))
	{
		archives.POST("", h.CreateArchive)
		archives.GET("", h.ListArchives)
		archives.GET("/:name", h.DownloadArchive)
		archives.POST("/:name/restore", h.RestoreArchive)
	}
}

// ExportCSV handles GET /api/exports/csv
// @Summary      Export records as CSV
// @Description  Downloads the full record store as a CSV file
// @Tags         archives
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /api/exports/csv [get]
func (h *ArchiveHandler) ExportCSV(c *gin.Context) {
	data, err := h.archiveService.ExportCSV(c.Request.Context(), actorFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export records"))
		return
	}

	filename := fmt.Sprintf("stock_requests_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportXLSX handles GET /api/exports/xlsx
// @Summary      Export records as Excel workbook
// @Description  Downloads the full record store as an XLSX file
// @Tags         archives
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /api/exports/xlsx [get]
func (h *ArchiveHandler) ExportXLSX(c *gin.Context) {
	data, err := h.archiveService.ExportXLSX(c.Request.Context(), actorFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export records"))
		return
	}

	filename := fmt.Sprintf("stock_requests_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// CreateArchive handles POST /api/archives
// @Summary      Create archive
// @Description  Writes a timestamped dump of the record store to the archive directory
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=archiver.ArchiveInfo}
// @Failure      500  {object}  response.Response
// @Router       /api/archives [post]
func (h *ArchiveHandler) CreateArchive(c *gin.Context) {
	info, err := h.archiveService.CreateArchive(c.Request.Context(), actorFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to create archive"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, info))
}

// ListArchives handles GET /api/archives
// @Summary      List archives
// @Description  Lists the dumps in the archive directory, newest first
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]archiver.ArchiveInfo}
// @Failure      500  {object}  response.Response
// @Router       /api/archives [get]
func (h *ArchiveHandler) ListArchives(c *gin.Context) {
	archives, err := h.archiveService.ListArchives(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list archives"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, archives))
}

// DownloadArchive handles GET /api/archives/:name
// @Summary      Download archive
// @Description  Downloads one archived dump by name
// @Tags         archives
// @Produce      text/csv
// @Security     BearerAuth
// @Param        name  path      string  true  "Archive name"
// @Success      200   {file}    file
// @Failure      404   {object}  response.Response
// @Router       /api/archives/{name} [get]
func (h *ArchiveHandler) DownloadArchive(c *gin.Context) {
	name := c.Param("name")
	data, err := h.archiveService.ReadArchive(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Archive not found"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, "text/csv", data)
}

// RestoreArchive handles POST /api/archives/:name/restore
// @Summary      Restore archive
// @Description  Replaces the record store contents with an archived dump
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Archive name"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/archives/{name}/restore [post]
func (h *ArchiveHandler) RestoreArchive(c *gin.Context) {
	name := c.Param("name")
	count, err := h.archiveService.Restore(c.Request.Context(), actorFromContext(c), name)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"archive":  name,
		"restored": count,
	}))
}
