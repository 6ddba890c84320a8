package entities

import "time"

// The records below describe the rest of the school model. They are stored
// shapes only; no repository or endpoint serves them yet.

// Attendance marks a student's presence on a given day
type Attendance struct {
	ID      string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Date    time.Time `json:"date" bson:"date"`
	Student Student   `json:"student" bson:"student"`
	Status  bool      `json:"status" bson:"status"`
	Remark  string    `json:"remark" bson:"remark"`
}

// Classroom is a section of a grade for one school year
type Classroom struct {
	ID      string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Year    int32   `json:"year" bson:"year"`
	GradeID int64   `json:"grade_id" bson:"grade_id"`
	Section string  `json:"section" bson:"section"`
	Status  bool    `json:"status" bson:"status"`
	Remarks string  `json:"remarks" bson:"remarks"`
	Teacher Teacher `json:"teacher" bson:"teacher"`
}

// ClassroomStudent enrolls a student into a classroom
type ClassroomStudent struct {
	ID        string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Classroom Classroom `json:"classroom" bson:"classroom"`
	Student   Student   `json:"student" bson:"student"`
}

// ExamType classifies an exam (e.g. "midterm", "final")
type ExamType string

// Exam is a scheduled examination
type Exam struct {
	ID        string    `json:"_id,omitempty" bson:"_id,omitempty"`
	ExamType  ExamType  `json:"exam_type" bson:"exam_type"`
	Name      string    `json:"name" bson:"name"`
	StartDate time.Time `json:"start_date" bson:"start_date"`
}

// Course is the subject an exam result is recorded against
type Course struct {
	ID    string `json:"_id,omitempty" bson:"_id,omitempty"`
	Code  string `json:"code" bson:"code"`
	Title string `json:"title" bson:"title"`
}

// ExamResult records a student's marks for a course
type ExamResult struct {
	ID      string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Student Student `json:"student" bson:"student"`
	Course  Course  `json:"course" bson:"course"`
	Marks   string  `json:"marks" bson:"marks"`
}
