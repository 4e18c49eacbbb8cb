package models

import "time"

// AssignedClasses records the author allocation for one student and one TP.
// A row exists exactly once per (tp_id, user_id); its presence together with
// the dataset file record marks the registration as completed.
type AssignedClasses struct {
	ID         int64     `db:"id" json:"id"`
	TPID       int       `db:"tp_id" json:"tp_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Class1     string    `db:"class_1" json:"class_1"`
	Class2     string    `db:"class_2" json:"class_2"`
	Class3     string    `db:"class_3" json:"class_3"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// Classes returns the persisted author names in order.
func (a *AssignedClasses) Classes() []string {
	return []string{a.Class1, a.Class2, a.Class3}
}

// HiddenTestID is a withheld ground-truth label for one item of a student's
// package. TextID is the sequential slice index used in the student manifest.
type HiddenTestID struct {
	ID          int64     `db:"id" json:"id"`
	TPID        int       `db:"tp_id" json:"tp_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	TextID      int       `db:"text_id" json:"text_id"`
	GroundTruth int       `db:"ground_truth" json:"ground_truth"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
