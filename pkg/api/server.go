// Package api provides the REST API server for chirpconv
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/formats/midifile"
	"github.com/chirptools/chirpconv/pkg/formats/ml64"
	"github.com/chirptools/chirpconv/pkg/mchirp"
	"github.com/chirptools/chirpconv/pkg/transform"
)

// @title ChirpConv API
// @version 1.0
// @description API for converting music between formats through the chirp representations
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := NewRouter()
	return r.Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert", handleConvert)
		v1.POST("/stats", handleStats)
		v1.GET("/formats", listFormats)
		v1.GET("/policies", listPolicies)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chirpconv",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the supported input and output formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"input":  []string{"midi"},
		"output": []string{"midi", "ml64"},
	})
}

// listPolicies godoc
// @Summary List polyphony resolution policies
// @Description Returns the policies accepted by the convert endpoint
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/policies [get]
func listPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"policies": []string{"highest", "lowest", "first", "last"},
	})
}

func readUpload(c *gin.Context) ([]byte, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, false
	}
	return data, true
}

// runPipeline imports a MIDI upload and applies the quantize and
// remove-polyphony passes with the given parameters.
func runPipeline(data []byte, grid, policy string) (*chirp.Song, error) {
	song, err := midifile.New().ImportChirp(data)
	if err != nil {
		return nil, err
	}
	if _, err := song.QuantizeToNoteName(grid); err != nil {
		return nil, err
	}
	p, err := chirp.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := song.RemovePolyphony(p); err != nil {
		return nil, err
	}
	return song, nil
}

// handleConvert godoc
// @Summary Convert an uploaded MIDI file
// @Description Runs the quantize, remove-polyphony, and measurize passes and returns the result in the requested format
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "MIDI file to convert"
// @Param output query string false "Output format: midi or ml64 (default midi)"
// @Param grid query string false "Quantization note value (default 16)"
// @Param policy query string false "Polyphony policy (default highest)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert [post]
func handleConvert(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}
	grid := c.DefaultQuery("grid", "16")
	policy := c.DefaultQuery("policy", "highest")
	output := c.DefaultQuery("output", "midi")

	song, err := runPipeline(data, grid, policy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result []byte
	var contentType, ext string
	switch output {
	case "midi":
		result, err = midifile.New().ExportChirp(song)
		contentType, ext = "audio/midi", ".mid"
	case "ml64":
		var measured *mchirp.Song
		measured, err = mchirp.Measurize(song, nil)
		if err == nil {
			result, err = ml64.New().ExportMChirp(measured)
		}
		contentType, ext = "text/plain", ".ml64"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported output format"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outputName := uuid.NewString() + ext
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, contentType, result)
}

// handleStats godoc
// @Summary Compute statistics for an uploaded MIDI file
// @Description Returns the descriptive statistics text block for the file's note content
// @Tags stats
// @Accept multipart/form-data
// @Produce text/plain
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Router /api/v1/stats [post]
func handleStats(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}
	song, err := midifile.New().ImportChirp(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, stats, err := transform.Apply(song, transform.Identity[*chirp.Song])
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, stats.Render())
}
