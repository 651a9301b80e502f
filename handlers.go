package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradesnap/models"
	"tradesnap/pkg/buyers"
	"tradesnap/pkg/ocr"
	"tradesnap/pkg/plate"
	"tradesnap/pkg/vehicle"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newRouter() *gin.Engine {
	r := gin.Default()
	setupRoutes(r)
	return r
}

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	r.GET("/locations", listLocationsHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/lookup", lookupHandler)
	authGroup.POST("/scan", scanHandler)
	authGroup.GET("/uploads", listUploadsHandler)
	authGroup.GET("/uploads/:id", getUploadHandler)
	authGroup.GET("/lookups", listLookupsHandler)
	authGroup.GET("/report/:reg/buyers", reportBuyersHandler)
	authGroup.POST("/bookings", createBookingHandler)
	authGroup.GET("/bookings", listBookingsHandler)
	authGroup.GET("/bookings/:reference", getBookingHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("username = ?", unameVal.(string)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	rt := models.RefreshToken{UserID: userID, TokenHash: hex.EncodeToString(h[:]), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// recordLookup audits a resolution attempt. Failures here never fail the request.
func recordLookup(userID uint, raw, reg, source, outcome string, missing []string) {
	rec := models.LookupRecord{
		UserID:       userID,
		RawInput:     raw,
		Registration: reg,
		Source:       source,
		Outcome:      outcome,
		Missing:      strings.Join(missing, ","),
	}
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("lookup audit failed: %v", err)
	}
}

// lookupHandler resolves a typed registration into a full vehicle report.
func lookupHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Registration string `json:"registration" binding:"required"`
		Condition    string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reg, err := plate.Normalize(req.Registration)
	if err != nil {
		var verr *plate.ValidationError
		if errors.As(err, &verr) {
			recordLookup(user.ID, req.Registration, "", models.LookupSourceManual, models.LookupInvalid, nil)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "reason": verr.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cond, err := vehicle.ParseCondition(req.Condition)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := assembler.AssembleWithCondition(c.Request.Context(), reg, cond)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report assembly failed"})
		return
	}
	outcome := models.LookupOK
	if len(rep.Missing) > 0 {
		outcome = models.LookupPartial
	}
	recordLookup(user.ID, req.Registration, reg, models.LookupSourceManual, outcome, rep.Missing)
	c.JSON(http.StatusOK, rep)
}

// scanHandler accepts a plate photo, runs OCR and resolves the report in one go.
// A failed read still leaves an Upload row for review.
func scanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	ct := file.Header.Get("Content-Type")
	baseDir := uploadBaseDir()
	relPath := filepath.Join("scans", file.Filename)
	fullPath := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Join(baseDir, "scans"), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	up := models.Upload{UserID: user.ID, FileName: file.Filename, StorePath: relPath, ContentType: ct}
	// Re-scan of the same file name updates the existing row instead of duplicating it.
	var existing models.Upload
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, file.Filename).First(&existing).Error; err == nil {
		up = existing
		up.StorePath = relPath
		up.ContentType = ct
	}

	reg, cands, err := ocrEngine.BestPlate(c.Request.Context(), fullPath)
	if err != nil {
		up.Failed = true
		switch {
		case errors.Is(err, ocr.ErrDecode):
			up.FailedReason = "unreadable image"
			saveUpload(&up)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		case errors.Is(err, ocr.ErrNoPlate):
			up.FailedReason = "no plate recognised"
			saveUpload(&up)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no plate recognised", "candidates": cands})
		default:
			up.FailedReason = err.Error()
			saveUpload(&up)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ocr failed"})
		}
		return
	}
	up.Failed = false
	up.FailedReason = ""
	up.Registration = reg
	if len(cands) > 0 {
		up.Confidence = cands[0].Confidence
	}
	saveUpload(&up)

	rep, err := assembler.Assemble(c.Request.Context(), reg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report assembly failed"})
		return
	}
	outcome := models.LookupOK
	if len(rep.Missing) > 0 {
		outcome = models.LookupPartial
	}
	recordLookup(user.ID, file.Filename, reg, models.LookupSourceScan, outcome, rep.Missing)
	c.JSON(http.StatusOK, gin.H{"upload_id": up.ID, "registration": reg, "candidates": cands, "report": rep})
}

func saveUpload(up *models.Upload) {
	if err := db.Save(up).Error; err != nil {
		log.Printf("upload save failed: %v", err)
	}
}

// listUploadsHandler returns uploads; admin sees all, user only their own.
func listUploadsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var uploads []models.Upload
	q := db.Model(&models.Upload{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&uploads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

// getUploadHandler returns single upload if admin or owner.
func getUploadHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id := c.Param("id")
	var up models.Upload
	if err := db.First(&up, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && up.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, up)
}

// listLookupsHandler returns the resolution audit trail; admin sees all.
func listLookupsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.LookupRecord
	q := db.Model(&models.LookupRecord{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// reportBuyersHandler rebuilds the report for a registration and ranks the
// buyer directory against its vehicle tags.
func reportBuyersHandler(c *gin.Context) {
	reg, err := plate.Normalize(c.Param("reg"))
	if err != nil {
		var verr *plate.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "reason": verr.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := assembler.Assemble(c.Request.Context(), reg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report assembly failed"})
		return
	}
	tags := rep.Tags()
	if tags == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle summary unavailable", "missing": rep.Missing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registration": reg, "tags": tags, "buyers": buyers.Match(tags)})
}

// listLocationsHandler serves the static dealership directory. Public: the
// booking form needs it before login.
func listLocationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, buyers.Locations)
}
