package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"censuspop/internal/config"
	"censuspop/internal/model"
	"censuspop/internal/service/population"
	"censuspop/internal/service/zone"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const squareKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Placemark><Polygon>
<outerBoundaryIs><LinearRing><coordinates>
-0.5,-0.5,0 1.5,-0.5,0 1.5,1.5,0 -0.5,1.5,0 -0.5,-0.5,0
</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark></Document></kml>`

type RouterSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *RouterSuite) SetupTest() {
	schema, ok := config.City("barcelona")
	s.Require().True(ok)

	zs := zone.NewZoneService()
	zs.AddDataset(zone.NewDataset(schema, []model.ZoneRecord{
		{
			City: "barcelona", Key: "1001", District: "Ciutat Vella", Neighborhood: "el Raval",
			DistrictCode: 1, SectionCode: 1, Population: 1520, HasPopulation: true,
			Geometry: "POLYGON ((0 0, 1 0, 1 1, 0 1, 0 0))",
		},
		{
			City: "barcelona", Key: "1002", Population: 980, HasPopulation: true,
			Geometry: "POLYGON ((5 5, 6 5, 6 6, 5 6, 5 5))",
		},
	}))

	s.router = gin.New()
	SetupRouter(s.router, population.NewService(zs, population.WithSeed(1)), config.Config{MaxUploadBytes: 1 << 16})
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("kml_file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calculate-population", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *RouterSuite) TestCalculatePopulation() {
	w := s.do(uploadRequest(s.T(), "area.kml", squareKML, nil))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	s.NotEmpty(w.Header().Get(RequestIDHeader))

	var resp struct {
		Population int `json:"population"`
		Statistics struct {
			TotalPopulation   float64                  `json:"total_population"`
			IntersectingZones []model.IntersectingZone `json:"intersecting_zones"`
			NumZones          int                      `json:"num_zones"`
		} `json:"statistics"`
		GeoJSON struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
		} `json:"geojson"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))

	s.Equal(1520, resp.Population)
	s.Equal(1520.0, resp.Statistics.TotalPopulation)
	s.Equal(1, resp.Statistics.NumZones)
	s.Require().Len(resp.Statistics.IntersectingZones, 1)
	s.Equal("1001", resp.Statistics.IntersectingZones[0].JoinKey)
	s.Equal("el Raval", resp.Statistics.IntersectingZones[0].Neighborhood)
	s.Equal("Feature", resp.GeoJSON.Type)
	s.Equal("area.kml", resp.GeoJSON.Properties["name"])
}

func (s *RouterSuite) TestCalculatePopulationWithPoints() {
	w := s.do(uploadRequest(s.T(), "area.kml", squareKML, map[string]string{"n_points": "500"}))
	s.Equal(http.StatusOK, w.Code)

	w = s.do(uploadRequest(s.T(), "area.kml", squareKML, map[string]string{"n_points": "many"}))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCalculatePopulationRejects() {
	cases := []struct {
		name string
		req  *http.Request
		msg  string
	}{
		{"missing file", uploadRequest(s.T(), "", "", map[string]string{"other": "x"}), "No KML file provided"},
		{"no coordinates", uploadRequest(s.T(), "a.kml", "<kml></kml>", nil), "tag found in KML"},
		{"empty coordinates", uploadRequest(s.T(), "a.kml", "<coordinates>  </coordinates>", nil), "empty"},
		{"too few points", uploadRequest(s.T(), "a.kml", "<coordinates>0,0 1,1</coordinates>", nil), "at least 3 points"},
		{"bad number", uploadRequest(s.T(), "a.kml", "<coordinates>0,0 1,x 2,2</coordinates>", nil), "invalid coordinate"},
		{"not utf8", uploadRequest(s.T(), "a.kml", "<coordinates>\xff\xfe</coordinates>", nil), "UTF-8"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.do(tc.req)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Contains(w.Body.String(), tc.msg)
		})
	}
}

func (s *RouterSuite) TestCalculatePopulationNotMultipart() {
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-population", strings.NewReader(squareKML))
	req.Header.Set("Content-Type", "application/xml")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "multipart/form-data")
}

func (s *RouterSuite) TestCalculatePopulationTooLarge() {
	big := squareKML + strings.Repeat(" ", 1<<17)
	w := s.do(uploadRequest(s.T(), "big.kml", big, nil))
	s.NotEqual(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/calculate-population", nil)
	w := s.do(req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func (s *RouterSuite) TestCensusZones() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/census-zones", nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &fc))
	s.Len(fc.Features, 2)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/census-zones?city=barcelona&sample=1", nil))
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &fc))
	s.Len(fc.Features, 1)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/census-zones?city=madrid", nil))
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/census-zones?sample=abc", nil))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestZoneStats() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/zone-stats/barcelona/1001", nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var detail map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &detail))
	s.Equal(1520.0, detail["population"])
	s.Equal("Ciutat Vella", detail["district"])
	s.Equal("1001", detail["geo_key"])
	s.Contains(detail, "geojson")

	for _, path := range []string{"/api/zone-stats/barcelona/9999", "/api/zone-stats/madrid/1001"} {
		w = s.do(httptest.NewRequest(http.MethodGet, path, nil))
		s.Equal(http.StatusNotFound, w.Code, path)
	}
}

func (s *RouterSuite) TestCitiesAndHealth() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"name":"barcelona"`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok","cities":1}`, w.Body.String())
}

func (s *RouterSuite) TestMetrics() {
	s.do(uploadRequest(s.T(), "a.kml", "<kml/>", nil))

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "censuspop_kml_parse_failures_total")
	s.Contains(w.Body.String(), "censuspop_http_requests_total")
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	w := s.do(req)
	s.Equal("abc123", w.Header().Get(RequestIDHeader))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func TestHealthWhileLoading(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRouter(r, population.NewService(zone.NewZoneService()), config.Config{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "a.kml", squareKML, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
}
