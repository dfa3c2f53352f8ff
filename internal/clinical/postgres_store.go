package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists clinical data in Postgres. Enumerations, the pain
// scale and cross-patient references are enforced by the schema.
type PostgresStore struct {
	db pgxQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("clinical: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db pgxQuerier) *PostgresStore {
	if db == nil {
		panic("clinical: querier required")
	}
	return &PostgresStore{db: db}
}

const patientColumns = `id, full_name, date_of_birth, gender, blood_type, phone, email, address,
	emergency_contact, department, status, admission_date, COALESCE(created_by::text, ''), created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p   Patient
		dob *time.Time
	)
	if err := row.Scan(
		&p.ID, &p.FullName, &dob, &p.Gender, &p.BloodType, &p.Phone, &p.Email, &p.Address,
		&p.EmergencyContact, &p.Department, &p.Status, &p.AdmissionDate, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dob != nil {
		p.DateOfBirth = *dob
	}
	return &p, nil
}

func (s *PostgresStore) GetPatient(ctx context.Context, id string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	p, err := scanPatient(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("clinical: select patient: %w", err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// patientWhere builds the shared WHERE clause for search and count.
func patientWhere(filter PatientFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if name := strings.TrimSpace(filter.NameLike); name != "" {
		args = append(args, likeEscaper.Replace(name))
		clauses = append(clauses, fmt.Sprintf(`full_name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
	}
	if filter.Department != "" {
		args = append(args, string(filter.Department))
		clauses = append(clauses, fmt.Sprintf("department = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) SearchPatients(ctx context.Context, filter PatientFilter) ([]Patient, error) {
	where, args := patientWhere(filter)
	query := `SELECT ` + patientColumns + ` FROM patients` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinical: search patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("clinical: scan patient: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountPatients(ctx context.Context, filter PatientFilter) (int, error) {
	where, args := patientWhere(filter)
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("clinical: count patients: %w", err)
	}
	return n, nil
}

func limitClause(limit int, next int) (string, bool) {
	if limit <= 0 {
		return "", false
	}
	return fmt.Sprintf(" LIMIT $%d", next), true
}

func (s *PostgresStore) ListMedicalRecords(ctx context.Context, patientID string, limit int) ([]MedicalRecord, error) {
	query := `
		SELECT id, patient_id, diagnosis, treatment_plan, medications, allergies, history,
		       COALESCE(created_by::text, ''), created_at
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC`
	args := []any{patientID}
	if clause, ok := limitClause(limit, 2); ok {
		query += clause
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinical: list medical records: %w", err)
	}
	defer rows.Close()

	var out []MedicalRecord
	for rows.Next() {
		var r MedicalRecord
		if err := rows.Scan(&r.ID, &r.PatientID, &r.Diagnosis, &r.TreatmentPlan, &r.Medications,
			&r.Allergies, &r.History, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("clinical: scan medical record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSurgeries(ctx context.Context, patientID string, limit int) ([]Surgery, error) {
	query := `
		SELECT id, patient_id, surgery_type, surgery_date, surgeon, duration_minutes, notes, created_at
		FROM surgeries
		WHERE patient_id = $1
		ORDER BY surgery_date DESC, created_at DESC`
	args := []any{patientID}
	if clause, ok := limitClause(limit, 2); ok {
		query += clause
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinical: list surgeries: %w", err)
	}
	defer rows.Close()

	var out []Surgery
	for rows.Next() {
		var sg Surgery
		if err := rows.Scan(&sg.ID, &sg.PatientID, &sg.SurgeryType, &sg.SurgeryDate, &sg.Surgeon,
			&sg.DurationMinutes, &sg.Notes, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("clinical: scan surgery: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListPostOpNotes(ctx context.Context, patientID string, order SortOrder, limit int) ([]PostOpNote, error) {
	direction := "ASC"
	if order == Descending {
		direction = "DESC"
	}
	query := `
		SELECT id, patient_id, surgery_id::text, day_number, vital_signs, pain_level, mobility,
		       wound_condition, complications, notes, created_at
		FROM post_operative_notes
		WHERE patient_id = $1
		ORDER BY day_number ` + direction + `, created_at ` + direction
	args := []any{patientID}
	if clause, ok := limitClause(limit, 2); ok {
		query += clause
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinical: list post-op notes: %w", err)
	}
	defer rows.Close()

	var out []PostOpNote
	for rows.Next() {
		var n PostOpNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.SurgeryID, &n.DayNumber, &n.VitalSigns, &n.PainLevel,
			&n.Mobility, &n.WoundCondition, &n.Complications, &n.Notes, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("clinical: scan post-op note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const milestoneColumns = `id, patient_id, milestone_type, description, achieved, achieved_date, target_date, notes, created_at`

func scanMilestone(row pgx.Row) (*RecoveryMilestone, error) {
	var m RecoveryMilestone
	if err := row.Scan(&m.ID, &m.PatientID, &m.MilestoneType, &m.Description, &m.Achieved,
		&m.AchievedDate, &m.TargetDate, &m.Notes, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) ListMilestones(ctx context.Context, patientID string, limit int) ([]RecoveryMilestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM recovery_milestones WHERE patient_id = $1 ORDER BY created_at DESC`
	args := []any{patientID}
	if clause, ok := limitClause(limit, 2); ok {
		query += clause
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinical: list milestones: %w", err)
	}
	defer rows.Close()

	var out []RecoveryMilestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("clinical: scan milestone: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetMilestone(ctx context.Context, id string) (*RecoveryMilestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM recovery_milestones WHERE id = $1`
	m, err := scanMilestone(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clinical: select milestone: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreatePatient(ctx context.Context, in NewPatient) (*Patient, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	in.applyDefaults(time.Now().UTC())

	var dob *time.Time
	if !in.DateOfBirth.IsZero() {
		dob = &in.DateOfBirth
	}
	query := `
		INSERT INTO patients (id, full_name, date_of_birth, gender, blood_type, phone, email, address,
			emergency_contact, department, status, admission_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + patientColumns
	p, err := scanPatient(s.db.QueryRow(ctx, query,
		uuid.NewString(),
		strings.TrimSpace(in.FullName),
		dob,
		in.Gender,
		in.BloodType,
		in.Phone,
		in.Email,
		in.Address,
		in.EmergencyContact,
		string(in.Department),
		string(in.Status),
		in.AdmissionDate,
		nullableUUID(in.CreatedBy),
	))
	if err != nil {
		return nil, mapWriteError("insert patient", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePatient(ctx context.Context, id string, patch PatientPatch) (*Patient, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	query := `
		UPDATE patients SET
			status = COALESCE($2, status),
			department = COALESCE($3, department),
			phone = COALESCE($4, phone),
			email = COALESCE($5, email),
			address = COALESCE($6, address),
			emergency_contact = COALESCE($7, emergency_contact),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + patientColumns
	p, err := scanPatient(s.db.QueryRow(ctx, query, id,
		(*string)(patch.Status), (*string)(patch.Department),
		patch.Phone, patch.Email, patch.Address, patch.EmergencyContact,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, mapWriteError("update patient", err)
	}
	return p, nil
}

func (s *PostgresStore) AddMedicalRecord(ctx context.Context, in NewMedicalRecord) (*MedicalRecord, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	r := MedicalRecord{
		ID:            uuid.NewString(),
		PatientID:     in.PatientID,
		Diagnosis:     in.Diagnosis,
		TreatmentPlan: in.TreatmentPlan,
		Medications:   in.Medications,
		Allergies:     in.Allergies,
		History:       in.History,
		CreatedBy:     in.CreatedBy,
	}
	query := `
		INSERT INTO medical_records (id, patient_id, diagnosis, treatment_plan, medications, allergies, history, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	if err := s.db.QueryRow(ctx, query, r.ID, r.PatientID, r.Diagnosis, r.TreatmentPlan,
		r.Medications, r.Allergies, r.History, nullableUUID(r.CreatedBy)).Scan(&r.CreatedAt); err != nil {
		return nil, mapWriteError("insert medical record", err)
	}
	return &r, nil
}

func (s *PostgresStore) AddSurgery(ctx context.Context, in NewSurgery) (*Surgery, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	sg := Surgery{
		ID:              uuid.NewString(),
		PatientID:       in.PatientID,
		SurgeryType:     in.SurgeryType,
		SurgeryDate:     in.SurgeryDate,
		Surgeon:         in.Surgeon,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
	}
	query := `
		INSERT INTO surgeries (id, patient_id, surgery_type, surgery_date, surgeon, duration_minutes, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	if err := s.db.QueryRow(ctx, query, sg.ID, sg.PatientID, sg.SurgeryType, sg.SurgeryDate,
		sg.Surgeon, sg.DurationMinutes, sg.Notes).Scan(&sg.CreatedAt); err != nil {
		return nil, mapWriteError("insert surgery", err)
	}
	return &sg, nil
}

func (s *PostgresStore) AddPostOpNote(ctx context.Context, in NewPostOpNote) (*PostOpNote, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	n := PostOpNote{
		ID:             uuid.NewString(),
		PatientID:      in.PatientID,
		SurgeryID:      in.SurgeryID,
		DayNumber:      in.DayNumber,
		VitalSigns:     in.VitalSigns,
		PainLevel:      in.PainLevel,
		Mobility:       in.Mobility,
		WoundCondition: in.WoundCondition,
		Complications:  in.Complications,
		Notes:          in.Notes,
	}
	query := `
		INSERT INTO post_operative_notes (id, patient_id, surgery_id, day_number, vital_signs, pain_level,
			mobility, wound_condition, complications, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`
	if err := s.db.QueryRow(ctx, query, n.ID, n.PatientID, n.SurgeryID, n.DayNumber, n.VitalSigns,
		n.PainLevel, n.Mobility, n.WoundCondition, n.Complications, n.Notes).Scan(&n.CreatedAt); err != nil {
		return nil, mapWriteError("insert post-op note", err)
	}
	return &n, nil
}

func (s *PostgresStore) AddMilestone(ctx context.Context, in NewMilestone) (*RecoveryMilestone, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	m := RecoveryMilestone{
		ID:            uuid.NewString(),
		PatientID:     in.PatientID,
		MilestoneType: in.MilestoneType,
		Description:   in.Description,
		TargetDate:    in.TargetDate,
		Notes:         in.Notes,
	}
	query := `
		INSERT INTO recovery_milestones (id, patient_id, milestone_type, description, target_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	if err := s.db.QueryRow(ctx, query, m.ID, m.PatientID, m.MilestoneType, m.Description,
		m.TargetDate, m.Notes).Scan(&m.CreatedAt); err != nil {
		return nil, mapWriteError("insert milestone", err)
	}
	return &m, nil
}

// ToggleMilestone flips the flag in a single UPDATE; the CASE reads the
// pre-update value of achieved.
func (s *PostgresStore) ToggleMilestone(ctx context.Context, id string, at time.Time) (*RecoveryMilestone, error) {
	query := `
		UPDATE recovery_milestones
		SET achieved = NOT achieved,
			achieved_date = CASE WHEN achieved THEN NULL ELSE $2::timestamptz END
		WHERE id = $1
		RETURNING ` + milestoneColumns
	m, err := scanMilestone(s.db.QueryRow(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapWriteError("toggle milestone", err)
	}
	return m, nil
}

func nullableUUID(id string) *string {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return &id
}

// checkMessages translates named schema constraints into field errors.
var checkMessages = map[string]ValidationError{
	"post_operative_notes_pain_level_check":      {Field: "pain_level", Message: fmt.Sprintf("must be between %d and %d", MinPainLevel, MaxPainLevel)},
	"post_operative_notes_surgery_patient_check": {Field: "surgery_id", Message: "must reference a surgery of the same patient"},
	"patients_department_check":                  {Field: "department", Message: "must be one of: cardiology, oncology, surgery"},
	"patients_status_check":                      {Field: "status", Message: "must be one of: admitted, recovering, discharged"},
}

// mapWriteError converts constraint violations into *ValidationError or
// ErrPatientNotFound so handlers can show them to staff.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("clinical: %s: %w", op, err)
	}
	switch pgErr.Code {
	case "23514": // check_violation
		if ve, ok := checkMessages[pgErr.ConstraintName]; ok {
			return &ve
		}
		return &ValidationError{Message: pgErr.Message}
	case "23503": // foreign_key_violation
		if strings.Contains(pgErr.ConstraintName, "patient_id") {
			return ErrPatientNotFound
		}
		return &ValidationError{Message: "references a record that does not exist"}
	case "22P02", "23502": // invalid_text_representation, not_null_violation
		return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message}
	}
	return fmt.Errorf("clinical: %s: %w", op, err)
}
