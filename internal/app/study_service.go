package app

import (
	"errors"
	"io"
	"strings"

	"examtutor/internal/model"
	"examtutor/internal/pkg/pdfextract"
	"examtutor/internal/repository"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrTopicNotFound   = errors.New("topic not found")
	ErrEmptyMaterial   = errors.New("study material has no extractable text")
)

// StudyService manages the study-content catalog: subjects, topics, questions
// and uploaded study materials.
type StudyService struct {
	subjectRepo  *repository.SubjectRepository
	topicRepo    *repository.TopicRepository
	questionRepo *repository.QuestionRepository
	materialRepo *repository.StudyMaterialRepository
}

func NewStudyService(
	subjectRepo *repository.SubjectRepository,
	topicRepo *repository.TopicRepository,
	questionRepo *repository.QuestionRepository,
	materialRepo *repository.StudyMaterialRepository,
) *StudyService {
	return &StudyService{
		subjectRepo:  subjectRepo,
		topicRepo:    topicRepo,
		questionRepo: questionRepo,
		materialRepo: materialRepo,
	}
}

type CreateSubjectInput struct {
	Name        string
	Description string
	Category    string
}

func (s *StudyService) CreateSubject(input CreateSubjectInput) (*model.Subject, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general_studies"
	}

	subject := &model.Subject{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
	}
	if err := s.subjectRepo.Create(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *StudyService) ListSubjects() ([]model.Subject, error) {
	return s.subjectRepo.List()
}

func (s *StudyService) GetSubject(subjectID uint) (*model.Subject, error) {
	if subjectID == 0 {
		return nil, ErrInvalidInput
	}
	subject, err := s.subjectRepo.GetByID(subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, ErrSubjectNotFound
	}
	return subject, nil
}

type CreateTopicInput struct {
	SubjectID   uint
	Name        string
	Description string
}

func (s *StudyService) CreateTopic(input CreateTopicInput) (*model.Topic, error) {
	name := strings.TrimSpace(input.Name)
	if input.SubjectID == 0 || name == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.GetSubject(input.SubjectID); err != nil {
		return nil, err
	}

	topic := &model.Topic{
		SubjectID:   input.SubjectID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.topicRepo.Create(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *StudyService) ListTopics(subjectID uint) ([]model.Topic, error) {
	if _, err := s.GetSubject(subjectID); err != nil {
		return nil, err
	}
	return s.topicRepo.ListBySubjectID(subjectID)
}

type CreateQuestionInput struct {
	TopicID         uint
	QuestionText    string
	Answer          string
	DifficultyLevel model.DifficultyLevel
	QuestionType    model.QuestionType
}

func (s *StudyService) CreateQuestion(input CreateQuestionInput) (*model.Question, error) {
	questionText := strings.TrimSpace(input.QuestionText)
	answer := strings.TrimSpace(input.Answer)
	if input.TopicID == 0 || questionText == "" || answer == "" {
		return nil, ErrInvalidInput
	}
	if input.DifficultyLevel == "" {
		input.DifficultyLevel = model.DifficultyMedium
	}
	if input.QuestionType == "" {
		input.QuestionType = model.QuestionMultipleChoice
	}
	if !input.DifficultyLevel.Valid() || !input.QuestionType.Valid() {
		return nil, ErrInvalidInput
	}
	if err := s.requireTopic(input.TopicID); err != nil {
		return nil, err
	}

	question := &model.Question{
		TopicID:         input.TopicID,
		QuestionText:    questionText,
		Answer:          answer,
		DifficultyLevel: input.DifficultyLevel,
		QuestionType:    input.QuestionType,
	}
	if err := s.questionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *StudyService) ListQuestions(topicID uint, difficulty model.DifficultyLevel) ([]model.Question, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, ErrInvalidInput
	}
	if err := s.requireTopic(topicID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByTopicID(topicID, difficulty)
}

type AddMaterialInput struct {
	TopicID  uint
	Title    string
	FileName string
	Reader   io.Reader
}

// AddMaterial stores an uploaded study material. PDF uploads are reduced to
// plain text before storage; anything else is stored as-is.
func (s *StudyService) AddMaterial(input AddMaterialInput) (*model.StudyMaterial, error) {
	title := strings.TrimSpace(input.Title)
	if input.TopicID == 0 || title == "" || input.Reader == nil {
		return nil, ErrInvalidInput
	}
	if err := s.requireTopic(input.TopicID); err != nil {
		return nil, err
	}

	var content string
	if strings.HasSuffix(strings.ToLower(input.FileName), ".pdf") {
		extracted, err := pdfextract.ExtractText(input.Reader)
		if err != nil {
			return nil, err
		}
		content = extracted
	} else {
		raw, err := io.ReadAll(input.Reader)
		if err != nil {
			return nil, err
		}
		content = string(raw)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMaterial
	}

	material := &model.StudyMaterial{
		TopicID:  input.TopicID,
		Title:    title,
		Content:  content,
		FileName: input.FileName,
	}
	if err := s.materialRepo.Create(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *StudyService) ListMaterials(topicID uint) ([]model.StudyMaterial, error) {
	if err := s.requireTopic(topicID); err != nil {
		return nil, err
	}
	return s.materialRepo.ListByTopicID(topicID)
}

func (s *StudyService) requireTopic(topicID uint) error {
	if topicID == 0 {
		return ErrInvalidInput
	}
	topic, err := s.topicRepo.GetByID(topicID)
	if err != nil {
		return err
	}
	if topic == nil {
		return ErrTopicNotFound
	}
	return nil
}
