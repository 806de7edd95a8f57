// Package postgres implements the PostgreSQL persistence layer for the
// student analytics service.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENTS AND ACTIVITIES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create students and activities tables
-- Version: 001

-- Students enrolled on the school platform
CREATE TABLE IF NOT EXISTS students (
    student_id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    grade_level VARCHAR(30),
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_student_status CHECK (status IN ('active', 'inactive', 'graduated', 'left'))
);

CREATE INDEX IF NOT EXISTS idx_students_email ON students(email);
CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);

-- Extra-curricular activities offered by departments
CREATE TABLE IF NOT EXISTS activities (
    activity_id BIGSERIAL PRIMARY KEY,
    name VARCHAR(150) NOT NULL,
    category VARCHAR(30) NOT NULL,
    description TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    max_students INTEGER NOT NULL DEFAULT 30,
    current_enrolled INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_category CHECK (category IN ('sports', 'clubs', 'technical', 'social', 'skill_development')),
    CONSTRAINT valid_activity_status CHECK (status IN ('pending', 'approved', 'rejected', 'archived')),
    CONSTRAINT valid_capacity CHECK (max_students > 0 AND current_enrolled >= 0)
);

CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category);
CREATE INDEX IF NOT EXISTS idx_activities_status ON activities(status) WHERE status = 'approved';

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_students_updated_at ON students;
CREATE TRIGGER update_students_updated_at
    BEFORE UPDATE ON students
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_activities_updated_at ON activities;
CREATE TRIGGER update_activities_updated_at
    BEFORE UPDATE ON activities
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_activities_updated_at ON activities;
DROP TRIGGER IF EXISTS update_students_updated_at ON students;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS activities;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ENGAGEMENT TRACKING
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create enrollment, attendance and performance tables
-- Version: 002
-- Purpose: Raw engagement data the analytics engines aggregate over

-- Enrollments link students to activities
CREATE TABLE IF NOT EXISTS enrollments (
    enrollment_id BIGSERIAL PRIMARY KEY,
    student_id BIGINT NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
    activity_id BIGINT NOT NULL REFERENCES activities(activity_id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(student_id, activity_id),
    CONSTRAINT valid_enrollment_status CHECK (status IN ('active', 'completed', 'dropped'))
);

CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_activity ON enrollments(activity_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_active ON enrollments(student_id, activity_id) WHERE status = 'active';

-- Per-session attendance records
CREATE TABLE IF NOT EXISTS attendance (
    attendance_id BIGSERIAL PRIMARY KEY,
    enrollment_id BIGINT NOT NULL REFERENCES enrollments(enrollment_id) ON DELETE CASCADE,
    date DATE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'present',

    UNIQUE(enrollment_id, date),
    CONSTRAINT valid_attendance_status CHECK (status IN ('present', 'absent', 'late', 'excused'))
);

CREATE INDEX IF NOT EXISTS idx_attendance_enrollment ON attendance(enrollment_id);
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date DESC);

-- Periodic performance evaluations
CREATE TABLE IF NOT EXISTS performance (
    performance_id BIGSERIAL PRIMARY KEY,
    enrollment_id BIGINT NOT NULL REFERENCES enrollments(enrollment_id) ON DELETE CASCADE,
    score DECIMAL(5,2) NOT NULL DEFAULT 0,
    skill_level VARCHAR(20) NOT NULL DEFAULT 'beginner',
    evaluation_date DATE NOT NULL,
    remarks TEXT,

    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100),
    CONSTRAINT valid_skill_level CHECK (skill_level IN ('beginner', 'intermediate', 'advanced', 'expert'))
);

CREATE INDEX IF NOT EXISTS idx_performance_enrollment ON performance(enrollment_id);
CREATE INDEX IF NOT EXISTS idx_performance_date ON performance(evaluation_date DESC);
CREATE INDEX IF NOT EXISTS idx_performance_enrollment_date ON performance(enrollment_id, evaluation_date DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS performance;
DROP TABLE IF EXISTS attendance;
DROP TABLE IF EXISTS enrollments;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE AI PREDICTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create the computed-insight audit table
-- Version: 003
-- Purpose: Every analytics result is persisted for history and review

CREATE TABLE IF NOT EXISTS ai_predictions (
    id UUID PRIMARY KEY,
    student_id BIGINT REFERENCES students(student_id) ON DELETE CASCADE,
    activity_id BIGINT REFERENCES activities(activity_id) ON DELETE CASCADE,
    model_type VARCHAR(40) NOT NULL,
    prediction_result JSONB NOT NULL,
    confidence_score DECIMAL(5,4),
    risk_level VARCHAR(20),
    recommended_actions TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_model_type CHECK (model_type IN ('dropout_risk', 'performance_forecast', 'activity_recommendation', 'student_clustering'))
);

CREATE INDEX IF NOT EXISTS idx_ai_predictions_student ON ai_predictions(student_id);
CREATE INDEX IF NOT EXISTS idx_ai_predictions_activity ON ai_predictions(activity_id);
CREATE INDEX IF NOT EXISTS idx_ai_predictions_model_type ON ai_predictions(model_type);
CREATE INDEX IF NOT EXISTS idx_ai_predictions_created ON ai_predictions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ai_predictions_student_created ON ai_predictions(student_id, created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS ai_predictions;
`
