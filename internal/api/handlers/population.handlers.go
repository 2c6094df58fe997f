package routes

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"censuspop/internal/geometry"
	"censuspop/internal/metrics"
	"censuspop/internal/presentation"
	"censuspop/internal/service/population"
	"censuspop/internal/service/zone"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// PopulationHandlers serves estimation and zone lookups
type PopulationHandlers struct {
	svc       *population.Service
	maxUpload int64
}

// SetupPopulationHandlers registers the population endpoints
func SetupPopulationHandlers(router *gin.RouterGroup, svc *population.Service, maxUpload int64) {
	h := &PopulationHandlers{svc: svc, maxUpload: maxUpload}

	router.POST("/calculate-population", h.CalculatePopulation)
	router.GET("/census-zones", h.CensusZones)
	router.GET("/zone-stats/:city/:key", h.ZoneStats)
	router.GET("/cities", h.Cities)
}

// CalculatePopulation estimates the population inside an uploaded KML polygon.
// The upload is read in memory and never written to disk.
func (h *PopulationHandlers) CalculatePopulation(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	fileHeader, err := c.FormFile("kml_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			errorJSON(c, http.StatusRequestEntityTooLarge, "KML file too large")
		case errors.Is(err, http.ErrNotMultipart):
			errorJSON(c, http.StatusBadRequest, "Expected multipart/form-data")
		default:
			errorJSON(c, http.StatusBadRequest, "No KML file provided")
		}
		return
	}
	if fileHeader.Filename == "" {
		errorJSON(c, http.StatusBadRequest, "No file selected")
		return
	}

	var nPoints *int
	if raw := c.PostForm("n_points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorJSON(c, http.StatusBadRequest, "n_points must be a positive integer")
			return
		}
		nPoints = &n
	}

	f, err := fileHeader.Open()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Cannot read KML file")
		return
	}
	content, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Cannot read KML file")
		return
	}
	if !utf8.Valid(content) {
		metrics.KMLParseFailuresTotal.Inc()
		errorJSON(c, http.StatusBadRequest, "KML file is not valid UTF-8")
		return
	}

	ring, err := geometry.ParseKML(string(content))
	if err != nil {
		metrics.KMLParseFailuresTotal.Inc()
		log.Warnf("[%s] rejected %s: %v", c.GetString("request_id"), fileHeader.Filename, err)
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	calc, err := h.svc.Calculate(c.Request.Context(), ring, nPoints)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[%s] %s: %d points, %d zones, population %d",
		c.GetString("request_id"), fileHeader.Filename, len(ring), calc.Statistics.NumZones, calc.Population)

	c.JSON(http.StatusOK, gin.H{
		"population": calc.Population,
		"statistics": calc.Statistics,
		"geojson":    presentation.QueryFeature(ring, fileHeader.Filename),
	})
}

// CensusZones returns the zone map of a city, optionally sampled
func (h *PopulationHandlers) CensusZones(c *gin.Context) {
	city := c.DefaultQuery("city", "barcelona")

	sample := 0
	if raw := c.Query("sample"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errorJSON(c, http.StatusBadRequest, "sample must be a non-negative integer")
			return
		}
		sample = n
	}

	payload, err := h.svc.CensusZones(c.Request.Context(), city, sample)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// ZoneStats returns one zone's population and boundary
func (h *PopulationHandlers) ZoneStats(c *gin.Context) {
	detail, err := h.svc.ZoneDetail(c.Param("city"), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Cities lists the loaded cities
func (h *PopulationHandlers) Cities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cities": h.svc.Cities(),
	})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, population.ErrCityNotFound), errors.Is(err, population.ErrZoneNotFound):
		errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, zone.ErrNotInitialized):
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("[%s] %s %s: %v", c.GetString("request_id"), c.Request.Method, c.Request.URL.Path, err)
		errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
