package controllers

import (
	"errors"
	"strconv"
	"strings"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ResourceController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewResourceController(db *gorm.DB, cfg *config.Config) *ResourceController {
	return &ResourceController{DB: db, Cfg: cfg}
}

func (rc *ResourceController) ownedResource(c *fiber.Ctx) (*models.Resource, error) {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}

	resourceID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid resource ID")
	}

	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Resource not found")
		}
		return nil, utils.ServerError(c, err)
	}

	if resource.TeacherID != userID {
		return nil, utils.Forbidden(c, "Not authorized to access this resource")
	}

	return &resource, nil
}

type QuestionInput struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        int      `json:"points"`
	Explanation   string   `json:"explanation"`
	Order         int      `json:"order"`
}

type CreateResourceRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Subject     string   `json:"subject" validate:"required"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration    int      `json:"duration"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"isPublic"`

	// lesson fields
	YoutubeURL         string   `json:"youtubeUrl"`
	Content            string   `json:"content"`
	LearningObjectives []string `json:"learningObjectives"`

	// quiz fields
	Questions    []QuestionInput `json:"questions"`
	TimeLimit    int             `json:"timeLimit"`
	PassingScore int             `json:"passingScore"`
	MaxAttempts  int             `json:"maxAttempts"`
	ShowAnswers  bool            `json:"showAnswers"`

	// material fields
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

func (rc *ResourceController) CreateResource(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CreateResourceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	resource := models.Resource{
		Title:        input.Title,
		Description:  input.Description,
		Type:         input.Type,
		Subject:      input.Subject,
		YoutubeURL:   input.YoutubeURL,
		Content:      input.Content,
		ShowAnswers:  input.ShowAnswers,
		FileURL:      input.FileURL,
		FileType:     input.FileType,
		FileSize:     input.FileSize,
		TeacherID:    userID,
		IsPublic:     input.IsPublic,
		Difficulty:   "intermediate",
		Duration:     30,
		TimeLimit:    30,
		PassingScore: 70,
		MaxAttempts:  3,
	}
	if input.Difficulty != "" {
		resource.Difficulty = input.Difficulty
	}
	if input.Duration > 0 {
		resource.Duration = input.Duration
	}
	if input.TimeLimit > 0 {
		resource.TimeLimit = input.TimeLimit
	}
	if input.PassingScore > 0 {
		resource.PassingScore = input.PassingScore
	}
	if input.MaxAttempts > 0 {
		resource.MaxAttempts = input.MaxAttempts
	}
	if input.Tags != nil {
		if resource.Tags, err = utils.ToJSON(input.Tags); err != nil {
			return utils.BadRequest(c, "Invalid tags")
		}
	}
	if input.LearningObjectives != nil {
		if resource.LearningObjectives, err = utils.ToJSON(input.LearningObjectives); err != nil {
			return utils.BadRequest(c, "Invalid learning objectives")
		}
	}

	for i, q := range input.Questions {
		question := models.Question{
			Question:      q.Question,
			Type:          q.Type,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Order:         q.Order,
			Points:        1,
		}
		if q.Points > 0 {
			question.Points = q.Points
		}
		if question.Order == 0 {
			question.Order = i + 1
		}
		if q.Options != nil {
			options, err := utils.ToJSON(q.Options)
			if err != nil {
				return utils.BadRequest(c, "Invalid question options")
			}
			question.Options = options
		}
		resource.Questions = append(resource.Questions, question)
	}

	// Type-specific validation reports every violated rule at once.
	if violations := resource.Validate(); len(violations) > 0 {
		return utils.BadRequest(c, strings.Join(violations, ", "))
	}

	if err := rc.DB.Create(&resource).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Resource created successfully", fiber.Map{
		"resource": resource,
	})
}

func (rc *ResourceController) GetMyResources(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	page, limit := pageParams(c, 10)

	query := rc.DB.Model(&models.Resource{}).Where("teacher_id = ?", userID)
	if resourceType := c.Query("type"); resourceType != "" {
		query = query.Where("type = ?", resourceType)
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var resources []models.Resource
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Questions").
		Find(&resources).Error; err != nil {
		return utils.ServerError(c, err)
	}

	// Grouped by type for the tab interface.
	grouped := fiber.Map{
		"lessons":   filterByType(resources, models.ResourceLesson),
		"quizzes":   filterByType(resources, models.ResourceQuiz),
		"materials": filterByType(resources, models.ResourceMaterial),
	}

	return utils.Paginated(c, grouped, total, page, limit)
}

func filterByType(resources []models.Resource, resourceType string) []models.Resource {
	filtered := make([]models.Resource, 0)
	for _, r := range resources {
		if r.Type == resourceType {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (rc *ResourceController) GetResource(c *fiber.Ctx) error {
	resource, err := rc.ownedResource(c)
	if err != nil {
		return err
	}

	if err := rc.DB.Preload("Questions").Preload("Ratings").
		First(resource, resource.ID).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"resource": resource})
}

type UpdateResourceRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Subject     *string  `json:"subject"`
	Difficulty  *string  `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration    *int     `json:"duration"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`

	YoutubeURL         *string  `json:"youtubeUrl"`
	Content            *string  `json:"content"`
	LearningObjectives []string `json:"learningObjectives"`

	TimeLimit    *int  `json:"timeLimit"`
	PassingScore *int  `json:"passingScore"`
	MaxAttempts  *int  `json:"maxAttempts"`
	ShowAnswers  *bool `json:"showAnswers"`

	FileURL  *string `json:"fileUrl"`
	FileType *string `json:"fileType"`
	FileSize *int64  `json:"fileSize"`
}

// UpdateResource cannot touch the owner, counters or ratings; those fields
// have no representation in the request struct.
func (rc *ResourceController) UpdateResource(c *fiber.Ctx) error {
	resource, err := rc.ownedResource(c)
	if err != nil {
		return err
	}

	var input UpdateResourceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if input.Title != nil {
		resource.Title = *input.Title
	}
	if input.Description != nil {
		resource.Description = *input.Description
	}
	if input.Subject != nil {
		resource.Subject = *input.Subject
	}
	if input.Difficulty != nil {
		resource.Difficulty = *input.Difficulty
	}
	if input.Duration != nil {
		resource.Duration = *input.Duration
	}
	if input.IsPublic != nil {
		resource.IsPublic = *input.IsPublic
	}
	if input.YoutubeURL != nil {
		resource.YoutubeURL = *input.YoutubeURL
	}
	if input.Content != nil {
		resource.Content = *input.Content
	}
	if input.TimeLimit != nil {
		resource.TimeLimit = *input.TimeLimit
	}
	if input.PassingScore != nil {
		resource.PassingScore = *input.PassingScore
	}
	if input.MaxAttempts != nil {
		resource.MaxAttempts = *input.MaxAttempts
	}
	if input.ShowAnswers != nil {
		resource.ShowAnswers = *input.ShowAnswers
	}
	if input.FileURL != nil {
		resource.FileURL = *input.FileURL
	}
	if input.FileType != nil {
		resource.FileType = *input.FileType
	}
	if input.FileSize != nil {
		resource.FileSize = *input.FileSize
	}
	if input.Tags != nil {
		if resource.Tags, err = utils.ToJSON(input.Tags); err != nil {
			return utils.BadRequest(c, "Invalid tags")
		}
	}
	if input.LearningObjectives != nil {
		if resource.LearningObjectives, err = utils.ToJSON(input.LearningObjectives); err != nil {
			return utils.BadRequest(c, "Invalid learning objectives")
		}
	}

	if err := rc.DB.Save(resource).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Resource updated successfully", fiber.Map{
		"resource": resource,
	})
}

func (rc *ResourceController) DeleteResource(c *fiber.Ctx) error {
	resource, err := rc.ownedResource(c)
	if err != nil {
		return err
	}

	if err := rc.DB.Delete(resource).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Resource deleted successfully", nil)
}

func (rc *ResourceController) TogglePublish(c *fiber.Ctx) error {
	resource, err := rc.ownedResource(c)
	if err != nil {
		return err
	}

	resource.IsPublished = !resource.IsPublished
	if err := rc.DB.Model(resource).Update("is_published", resource.IsPublished).Error; err != nil {
		return utils.ServerError(c, err)
	}

	message := "Resource unpublished successfully"
	if resource.IsPublished {
		message = "Resource published successfully"
	}

	return utils.Success(c, fiber.StatusOK, message, fiber.Map{"resource": resource})
}

// publicResourceView shapes a resource for unauthenticated consumers:
// question correct answers and explanations never appear.
func publicResourceView(r models.Resource) fiber.Map {
	questions := make([]fiber.Map, 0, len(r.Questions))
	for _, q := range r.Questions {
		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"question": q.Question,
			"type":     q.Type,
			"options":  q.Options,
			"points":   q.Points,
			"order":    q.Order,
		})
	}

	return fiber.Map{
		"id":            r.ID,
		"title":         r.Title,
		"description":   r.Description,
		"type":          r.Type,
		"subject":       r.Subject,
		"difficulty":    r.Difficulty,
		"duration":      r.Duration,
		"tags":          r.Tags,
		"youtubeUrl":    r.YoutubeURL,
		"content":       r.Content,
		"timeLimit":     r.TimeLimit,
		"passingScore":  r.PassingScore,
		"fileUrl":       r.FileURL,
		"fileType":      r.FileType,
		"fileSize":      r.FileSize,
		"views":         r.Views,
		"downloads":     r.Downloads,
		"averageRating": r.AverageRating,
		"createdAt":     r.CreatedAt,
		"questions":     questions,
	}
}

func (rc *ResourceController) listPublic(c *fiber.Ctx, base *gorm.DB, defaultLimit int) error {
	page, limit := pageParams(c, defaultLimit)

	query := base.Where("is_public = ? AND is_published = ?", true, true)
	if resourceType := c.Query("type"); resourceType != "" {
		query = query.Where("type = ?", resourceType)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var resources []models.Resource
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Questions").
		Find(&resources).Error; err != nil {
		return utils.ServerError(c, err)
	}

	views := make([]fiber.Map, 0, len(resources))
	for _, r := range resources {
		views = append(views, publicResourceView(r))
	}

	return utils.Paginated(c, fiber.Map{"resources": views}, total, page, limit)
}

func (rc *ResourceController) GetPublicResources(c *fiber.Ctx) error {
	base := rc.DB.Model(&models.Resource{})
	if subject := c.Query("subject"); subject != "" {
		base = base.Where("subject = ?", subject)
	}
	return rc.listPublic(c, base, 12)
}

func (rc *ResourceController) GetResourcesBySubject(c *fiber.Ctx) error {
	base := rc.DB.Model(&models.Resource{}).Where("subject = ?", c.Params("subject"))
	return rc.listPublic(c, base, 10)
}

// IncrementViews is unauthenticated and unconditional; repeated calls by
// the same caller all count.
func (rc *ResourceController) IncrementViews(c *fiber.Ctx) error {
	resourceID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid resource ID")
	}

	result := rc.DB.Model(&models.Resource{}).
		Where("id = ?", resourceID).
		Update("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return utils.ServerError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NotFound(c, "Resource not found")
	}

	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "View counted", fiber.Map{"views": resource.Views})
}

func (rc *ResourceController) IncrementDownloads(c *fiber.Ctx) error {
	resourceID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid resource ID")
	}

	result := rc.DB.Model(&models.Resource{}).
		Where("id = ?", resourceID).
		Update("downloads", gorm.Expr("downloads + 1"))
	if result.Error != nil {
		return utils.ServerError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NotFound(c, "Resource not found")
	}

	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Download counted", fiber.Map{
		"downloads": resource.Downloads,
		"fileUrl":   resource.FileURL,
	})
}

type RateResourceRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (rc *ResourceController) RateResource(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	resourceID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid resource ID")
	}

	var input RateResourceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	resource, totalRatings, err := models.RateResource(rc.DB, uint(resourceID), userID, input.Rating, input.Comment)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Resource not found")
		}
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Resource rated successfully", fiber.Map{
		"averageRating": resource.AverageRating,
		"totalRatings":  totalRatings,
	})
}
