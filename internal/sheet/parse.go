package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/script-select-api/internal/models"
)

// parseTable reads a delimited table with a header row into maps keyed by
// lowercased column name. Tolerates a UTF-8 byte-order-mark, quoted fields
// with embedded commas, and trailing blank lines.
func parseTable(r io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(r)
	if ch, _, err := br.ReadRune(); err == nil && ch != '\ufeff' {
		if err := br.UnreadRune(); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(map[string]string, len(headerMap))
		for name, idx := range headerMap {
			row[name] = getField(record, idx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func getField(record []string, idx int) string {
	if idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// ParseScripts transforms catalog CSV into scripts. Rows missing id are dropped.
func ParseScripts(r io.Reader) ([]models.Script, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, err
	}
	var scripts []models.Script
	for _, row := range rows {
		if row["id"] == "" {
			continue
		}
		scripts = append(scripts, scriptFromRow(row))
	}
	return scripts, nil
}

func scriptFromRow(row map[string]string) models.Script {
	script := models.Script{
		ID:               row["id"],
		Category:         row["category"],
		Title:            row["title"],
		ProjectNote:      row["project_note"],
		VideoDescription: row["video_description"],
		Requirements:     row["requirements"],
		MaterialLink:     row["material_link"],
	}
	stageColumns := [4]string{"start", "develop", "twist", "end"}
	for i, col := range stageColumns {
		script.Stages[i] = models.Stage{
			Name:     models.StageNames[i],
			Points:   row[col+"_points"],
			Dialogue: row[col+"_dialogue"],
		}
	}
	return script
}

// ParseUsers transforms roster CSV into users. Rows missing id are dropped.
func ParseUsers(r io.Reader) ([]models.User, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, err
	}
	var users []models.User
	for _, row := range rows {
		if row["id"] == "" {
			continue
		}
		users = append(users, userFromRow(row))
	}
	return users, nil
}

func userFromRow(row map[string]string) models.User {
	user := models.User{
		ID:              row["id"],
		Name:            row["name"],
		Role:            models.Role(row["role"]),
		AssignedScripts: models.ParseIDList(row["assignedscripts"]),
		ScriptPool:      models.ParsePool(row["script_pool"]),
		Quota:           models.DefaultQuota,
		ContactPerson:   row["contact_person"],
		Instagram:       row["instagram"],
	}
	if raw := row["quota"]; raw != "" {
		if quota, err := strconv.Atoi(raw); err == nil && quota > 0 {
			user.Quota = quota
		}
	}
	if raw := row["selection_start_time"]; raw != "" {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.UnixMilli(millis)
			user.SelectionStartTime = &t
		}
	}
	return user
}
