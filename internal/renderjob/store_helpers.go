package renderjob

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, job_id, project_name, snapshot_version, status, graph_json, output_path, artifact_path, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		jobID           string
		projectName     sql.NullString
		snapshotVersion sql.NullInt64
		statusStr       string
		graphJSON       sql.NullString
		outputPath      sql.NullString
		artifactPath    sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&projectName,
		&snapshotVersion,
		&statusStr,
		&graphJSON,
		&outputPath,
		&artifactPath,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		JobID:           jobID,
		ProjectName:     projectName.String,
		SnapshotVersion: snapshotVersion.Int64,
		Status:          Status(statusStr),
		GraphJSON:       graphJSON.String,
		OutputPath:      outputPath.String,
		ArtifactPath:    artifactPath.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
