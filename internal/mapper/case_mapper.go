package mapper

import (
	"encoding/json"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/model"

	"gorm.io/datatypes"
)

type CaseMapper struct{}

func NewCaseMapper() *CaseMapper {
	return &CaseMapper{}
}

func (m *CaseMapper) ToEntity(c *model.Case) *entity.Case {
	if c == nil {
		return nil
	}
	return &entity.Case{
		Id:          c.Id,
		UserId:      c.UserId,
		Title:       c.Title,
		Description: c.Description,
		CountryCode: c.CountryCode,
		CaseType:    c.CaseType,
		Status:      entity.CaseStatus(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *CaseMapper) ToModel(c *entity.Case) *model.Case {
	if c == nil {
		return nil
	}
	return &model.Case{
		Id:          c.Id,
		UserId:      c.UserId,
		Title:       c.Title,
		Description: c.Description,
		CountryCode: c.CountryCode,
		CaseType:    c.CaseType,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *CaseMapper) MessageToEntity(msg *model.CaseMessage) *entity.CaseMessage {
	if msg == nil {
		return nil
	}
	return &entity.CaseMessage{
		Id:        msg.Id,
		CaseId:    msg.CaseId,
		Role:      entity.MessageRole(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *CaseMapper) MessageToModel(msg *entity.CaseMessage) *model.CaseMessage {
	if msg == nil {
		return nil
	}
	return &model.CaseMessage{
		Id:        msg.Id,
		CaseId:    msg.CaseId,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *CaseMapper) FileToEntity(f *model.CaseFile) *entity.CaseFile {
	if f == nil {
		return nil
	}
	return &entity.CaseFile{
		Id:               f.Id,
		CaseId:           f.CaseId,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		StoragePath:      f.StoragePath,
		Filesize:         f.Filesize,
		Mimetype:         f.Mimetype,
		UploadedBy:       f.UploadedBy,
		CreatedAt:        f.CreatedAt,
	}
}

func (m *CaseMapper) FileToModel(f *entity.CaseFile) *model.CaseFile {
	if f == nil {
		return nil
	}
	return &model.CaseFile{
		Id:               f.Id,
		CaseId:           f.CaseId,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		StoragePath:      f.StoragePath,
		Filesize:         f.Filesize,
		Mimetype:         f.Mimetype,
		UploadedBy:       f.UploadedBy,
		CreatedAt:        f.CreatedAt,
	}
}

// SummaryToEntity decodes the jsonb columns; malformed stored JSON yields
// empty slices rather than an error because a summary row with a broken
// column should still render.
func (m *CaseMapper) SummaryToEntity(s *model.CaseSummary) *entity.CaseSummary {
	if s == nil {
		return nil
	}
	var events []entity.TimelineEvent
	_ = json.Unmarshal(s.TimelineEvents, &events)
	var keyPoints []string
	_ = json.Unmarshal(s.KeyPoints, &keyPoints)
	var nextSteps []string
	_ = json.Unmarshal(s.NextSteps, &nextSteps)

	return &entity.CaseSummary{
		Id:              s.Id,
		CaseId:          s.CaseId,
		CaseDescription: s.CaseDescription,
		TimelineEvents:  events,
		KeyPoints:       keyPoints,
		NextSteps:       nextSteps,
		Urgency:         entity.UrgencyLevel(s.Urgency),
		MessageCount:    s.MessageCount,
		CreatedAt:       s.CreatedAt,
	}
}

func (m *CaseMapper) SummaryToModel(s *entity.CaseSummary) (*model.CaseSummary, error) {
	if s == nil {
		return nil, nil
	}
	events, err := json.Marshal(s.TimelineEvents)
	if err != nil {
		return nil, err
	}
	keyPoints, err := json.Marshal(s.KeyPoints)
	if err != nil {
		return nil, err
	}
	nextSteps, err := json.Marshal(s.NextSteps)
	if err != nil {
		return nil, err
	}
	return &model.CaseSummary{
		Id:              s.Id,
		CaseId:          s.CaseId,
		CaseDescription: s.CaseDescription,
		TimelineEvents:  datatypes.JSON(events),
		KeyPoints:       datatypes.JSON(keyPoints),
		NextSteps:       datatypes.JSON(nextSteps),
		Urgency:         string(s.Urgency),
		MessageCount:    s.MessageCount,
		CreatedAt:       s.CreatedAt,
	}, nil
}
