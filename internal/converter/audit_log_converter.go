package converter

import (
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
)

// AuditLogsToResponses converts a slice of AuditLog entities to slice of AuditLogResponse DTOs
func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = dto.AuditLogResponse{
			ID:            log.ID,
			UserID:        log.UserID,
			AppointmentID: log.AppointmentID,
			Action:        log.Action,
			Metadata:      log.Metadata,
			CreatedAt:     log.CreatedAt,
		}
	}
	return responses
}
