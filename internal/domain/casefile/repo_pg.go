package casefile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caselog/caselog/internal/domain/tags"
	"github.com/caselog/caselog/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) Repository {
	return &caseRepoPG{pool: pool}
}

func (r *caseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const caseCols = `id, user_id, patient_id, title, priority, status,
	chief_complaint, chief_complaint_analysis, history, physical_exam,
	learning_points, vitals, symptoms, past_medical_history, medications,
	allergies, urinary_symptoms, social_history, family_history,
	management_plan, notes, created_at, updated_at`

func (r *caseRepoPG) scanCase(row pgx.Row) (*MedicalCase, error) {
	var mc MedicalCase
	err := row.Scan(&mc.ID, &mc.UserID, &mc.PatientID, &mc.Title, &mc.Priority, &mc.Status,
		&mc.ChiefComplaint, &mc.ChiefComplaintAnalysis, &mc.History, &mc.PhysicalExam,
		&mc.LearningPoints, &mc.Vitals, &mc.Symptoms, &mc.PastMedicalHistory, &mc.Medications,
		&mc.Allergies, &mc.UrinarySymptoms, &mc.SocialHistory, &mc.FamilyHistory,
		&mc.ManagementPlan, &mc.Notes, &mc.CreatedAt, &mc.UpdatedAt)
	return &mc, err
}

// Create writes the full aggregate (patient, case, diagnoses, labs,
// radiology studies, resources, tag assignments) in a single transaction.
func (r *caseRepoPG) Create(ctx context.Context, mc *MedicalCase) error {
	mc.ID = uuid.New()
	if mc.Patient != nil {
		mc.Patient.ID = uuid.New()
		mc.PatientID = mc.Patient.ID
	}

	return db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		q := r.conn(txCtx)

		if mc.Patient != nil {
			if _, err := q.Exec(txCtx, `
				INSERT INTO patients (id, name, age, gender, medical_record_number)
				VALUES ($1, $2, $3, $4, $5)`,
				mc.Patient.ID, mc.Patient.Name, mc.Patient.Age, mc.Patient.Gender,
				mc.Patient.MedicalRecordNumber); err != nil {
				return err
			}
		}

		if _, err := q.Exec(txCtx, `
			INSERT INTO medical_cases (id, user_id, patient_id, title, priority, status,
				chief_complaint, chief_complaint_analysis, history, physical_exam,
				learning_points, vitals, symptoms, past_medical_history, medications,
				allergies, urinary_symptoms, social_history, family_history,
				management_plan, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
			mc.ID, mc.UserID, mc.PatientID, mc.Title, mc.Priority, mc.Status,
			mc.ChiefComplaint, mc.ChiefComplaintAnalysis, mc.History, mc.PhysicalExam,
			mc.LearningPoints, mc.Vitals, mc.Symptoms, mc.PastMedicalHistory, mc.Medications,
			mc.Allergies, mc.UrinarySymptoms, mc.SocialHistory, mc.FamilyHistory,
			mc.ManagementPlan, mc.Notes); err != nil {
			return err
		}

		for i := range mc.Diagnoses {
			d := &mc.Diagnoses[i]
			d.ID = uuid.New()
			d.CaseID = mc.ID
			if _, err := q.Exec(txCtx, `
				INSERT INTO diagnoses (id, case_id, name, status, notes)
				VALUES ($1, $2, $3, $4, $5)`,
				d.ID, d.CaseID, d.Name, d.Status, d.Notes); err != nil {
				return err
			}
		}

		for i := range mc.LabTests {
			lt := &mc.LabTests[i]
			lt.ID = uuid.New()
			lt.CaseID = mc.ID
			if _, err := q.Exec(txCtx, `
				INSERT INTO lab_tests (id, case_id, name, value, unit, normal_range, interpretation)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				lt.ID, lt.CaseID, lt.Name, lt.Value, lt.Unit, lt.NormalRange, lt.Interpretation); err != nil {
				return err
			}
		}

		for i := range mc.RadiologyStudies {
			rs := &mc.RadiologyStudies[i]
			rs.ID = uuid.New()
			rs.CaseID = mc.ID
			if _, err := q.Exec(txCtx, `
				INSERT INTO radiology_studies (id, case_id, name, modality, findings, study_date, impression)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rs.ID, rs.CaseID, rs.Name, rs.Modality, rs.Findings, rs.Date, rs.Impression); err != nil {
				return err
			}
		}

		for i := range mc.Resources {
			res := &mc.Resources[i]
			res.ID = uuid.New()
			res.CaseID = mc.ID
			if _, err := q.Exec(txCtx, `
				INSERT INTO case_resources (id, case_id, title, type, url, notes)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				res.ID, res.CaseID, res.Title, res.Type, res.URL, res.Notes); err != nil {
				return err
			}
		}

		for _, tag := range mc.Tags {
			if _, err := q.Exec(txCtx, `
				INSERT INTO case_tag_assignments (case_id, tag_id) VALUES ($1, $2)`,
				mc.ID, tag.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *caseRepoPG) GetByID(ctx context.Context, userID string, id uuid.UUID) (*MedicalCase, error) {
	mc, err := r.scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM medical_cases WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadPatient(ctx, mc); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, []*MedicalCase{mc}); err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, mc); err != nil {
		return nil, err
	}
	return mc, nil
}

func (r *caseRepoPG) ListByOwner(ctx context.Context, userID string) ([]*MedicalCase, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+caseCols+` FROM medical_cases WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*MedicalCase
	for rows.Next() {
		mc, err := r.scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, mc := range cases {
		if err := r.loadPatient(ctx, mc); err != nil {
			return nil, err
		}
	}
	if err := r.loadRelations(ctx, cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *caseRepoPG) Update(ctx context.Context, mc *MedicalCase) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_cases SET title=$3, priority=$4, status=$5,
			chief_complaint=$6, chief_complaint_analysis=$7, history=$8,
			physical_exam=$9, learning_points=$10, vitals=$11, symptoms=$12,
			past_medical_history=$13, medications=$14, allergies=$15,
			urinary_symptoms=$16, social_history=$17, family_history=$18,
			management_plan=$19, notes=$20, updated_at=NOW()
		WHERE id = $1 AND user_id = $2`,
		mc.ID, mc.UserID, mc.Title, mc.Priority, mc.Status,
		mc.ChiefComplaint, mc.ChiefComplaintAnalysis, mc.History,
		mc.PhysicalExam, mc.LearningPoints, mc.Vitals, mc.Symptoms,
		mc.PastMedicalHistory, mc.Medications, mc.Allergies,
		mc.UrinarySymptoms, mc.SocialHistory, mc.FamilyHistory,
		mc.ManagementPlan, mc.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the case and its owned rows. The patient row goes with the
// case (1:1 ownership); tags survive, only the assignments are removed.
func (r *caseRepoPG) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		q := r.conn(txCtx)

		mc, err := r.scanCase(q.QueryRow(txCtx,
			`SELECT `+caseCols+` FROM medical_cases WHERE id = $1 AND user_id = $2`, id, userID))
		if err != nil {
			return err
		}

		for _, table := range []string{"diagnoses", "lab_tests", "radiology_studies", "case_resources", "case_tag_assignments"} {
			if _, err := q.Exec(txCtx, `DELETE FROM `+table+` WHERE case_id = $1`, id); err != nil {
				return err
			}
		}
		if _, err := q.Exec(txCtx, `DELETE FROM medical_cases WHERE id = $1`, id); err != nil {
			return err
		}
		_, err = q.Exec(txCtx, `DELETE FROM patients WHERE id = $1`, mc.PatientID)
		return err
	})
}

func (r *caseRepoPG) loadPatient(ctx context.Context, mc *MedicalCase) error {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, age, gender, medical_record_number, created_at
		 FROM patients WHERE id = $1`, mc.PatientID).
		Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.MedicalRecordNumber, &p.CreatedAt)
	if err != nil {
		return err
	}
	mc.Patient = &p
	return nil
}

// loadRelations fills diagnoses and tags for a batch of cases. These are the
// relations the dashboard and list views need; full detail rows (labs,
// radiology, resources) are loaded per-case by loadDetails.
func (r *caseRepoPG) loadRelations(ctx context.Context, cases []*MedicalCase) error {
	if len(cases) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(cases))
	byID := make(map[uuid.UUID]*MedicalCase, len(cases))
	for i, mc := range cases {
		ids[i] = mc.ID
		byID[mc.ID] = mc
		mc.Diagnoses = []Diagnosis{}
		mc.Tags = []tags.CaseTag{}
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, case_id, name, status, notes FROM diagnoses WHERE case_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var d Diagnosis
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Name, &d.Status, &d.Notes); err != nil {
			rows.Close()
			return err
		}
		if mc, ok := byID[d.CaseID]; ok {
			mc.Diagnoses = append(mc.Diagnoses, d)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Unpack the tag-assignment join into flat tags slices.
	tagRows, err := r.conn(ctx).Query(ctx, `
		SELECT a.case_id, t.id, t.name, t.color, t.created_at
		FROM case_tag_assignments a
		JOIN case_tags t ON t.id = a.tag_id
		WHERE a.case_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var caseID uuid.UUID
		var t tags.CaseTag
		if err := tagRows.Scan(&caseID, &t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return err
		}
		if mc, ok := byID[caseID]; ok {
			mc.Tags = append(mc.Tags, t)
		}
	}
	return tagRows.Err()
}

// loadDetails fills labs, radiology studies, and resources for one case.
func (r *caseRepoPG) loadDetails(ctx context.Context, mc *MedicalCase) error {
	mc.LabTests = []LabTest{}
	mc.RadiologyStudies = []RadiologyStudy{}
	mc.Resources = []Resource{}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, name, value, unit, normal_range, interpretation
		FROM lab_tests WHERE case_id = $1`, mc.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var lt LabTest
		if err := rows.Scan(&lt.ID, &lt.CaseID, &lt.Name, &lt.Value, &lt.Unit, &lt.NormalRange, &lt.Interpretation); err != nil {
			rows.Close()
			return err
		}
		mc.LabTests = append(mc.LabTests, lt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT id, case_id, name, modality, findings, study_date, impression
		FROM radiology_studies WHERE case_id = $1`, mc.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rs RadiologyStudy
		if err := rows.Scan(&rs.ID, &rs.CaseID, &rs.Name, &rs.Modality, &rs.Findings, &rs.Date, &rs.Impression); err != nil {
			rows.Close()
			return err
		}
		mc.RadiologyStudies = append(mc.RadiologyStudies, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT id, case_id, title, type, url, notes
		FROM case_resources WHERE case_id = $1`, mc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.CaseID, &res.Title, &res.Type, &res.URL, &res.Notes); err != nil {
			return err
		}
		mc.Resources = append(mc.Resources, res)
	}
	return rows.Err()
}
