package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

// collectStepProgress drains rows into StepProgress records.
func collectStepProgress(rows *sql.Rows) ([]models.StepProgress, error) {
	var out []models.StepProgress
	for rows.Next() {
		var p models.StepProgress
		var completedAt sql.NullTime
		if err := rows.Scan(&p.UserID, &p.StepNumber, &p.StepName, &p.Completed, &completedAt, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan step progress row failed: %w", err)
		}
		if completedAt.Valid {
			p.CompletedAt = &completedAt.Time
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step progress rows failed: %w", err)
	}
	return out, nil
}

// scanAnswerRow scans an AnswerRecord from a single sql.Row.
func scanAnswerRow(row *sql.Row) (models.AnswerRecord, error) {
	var rec models.AnswerRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.FormKey, &rec.Discriminator, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// collectAnswers drains rows into AnswerRecords.
func collectAnswers(rows *sql.Rows) ([]models.AnswerRecord, error) {
	var out []models.AnswerRecord
	for rows.Next() {
		var rec models.AnswerRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FormKey, &rec.Discriminator, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan answer row failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer rows failed: %w", err)
	}
	return out, nil
}

// collectStrings drains a single-column result set.
func collectStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string row failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate string rows failed: %w", err)
	}
	return out, nil
}

// scanDayPlanRow scans a DayPlan from a single sql.Row, decoding the
// obstacles column defensively: a malformed document yields an empty list,
// never an error.
func scanDayPlanRow(row *sql.Row) (*models.DayPlan, error) {
	var p models.DayPlan
	var obstaclesJSON string
	err := row.Scan(&p.ID, &p.UserID, &p.HabitID, &p.PlanType, &p.Description, &obstaclesJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Obstacles = decodeObstacles(obstaclesJSON, p.UserID, p.HabitID)
	return &p, nil
}

// encodeObstacles serializes the obstacle list for storage.
func encodeObstacles(obstacles []models.Obstacle) (string, error) {
	if len(obstacles) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(obstacles)
	if err != nil {
		return "", fmt.Errorf("failed to encode obstacles: %w", err)
	}
	return string(data), nil
}

// decodeObstacles deserializes the stored obstacle list. Decode failures are
// logged and recovered as an empty list.
func decodeObstacles(raw, userID, habitID string) []models.Obstacle {
	if raw == "" || raw == "[]" {
		return nil
	}
	var obstacles []models.Obstacle
	if err := json.Unmarshal([]byte(raw), &obstacles); err != nil {
		slog.Error("decodeObstacles: malformed obstacle document, ignoring", "error", err, "userID", userID, "habitID", habitID)
		return nil
	}
	return obstacles
}
