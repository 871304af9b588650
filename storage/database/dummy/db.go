// Package dummydb is an in-memory Entity Store used by tests and local
// development. One lock guards all tables so every compound operation
// (paired creation, dependency-checked delete) is atomic, mirroring the
// transactional guarantees of the SQL store.
package dummydb

import (
	"sync"

	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

// beforeProfileInsert is a test hook, letting tests inject a storage failure
// between the two halves of a paired Actor+profile creation.
var beforeProfileInsert func() error

type DB struct {
	mu sync.RWMutex

	users       map[int]*user.User
	groups      map[int]*school.Group
	subjects    map[int]*school.Subject
	semesters   map[int]*school.Semester
	teachers    map[int]*teacher.Teacher
	students    map[int]*student.Student
	assignments map[int]*assignment.Assignment
	grades      map[int]*grade.Grade

	nextID int
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*user.User),
		groups:      make(map[int]*school.Group),
		subjects:    make(map[int]*school.Subject),
		semesters:   make(map[int]*school.Semester),
		teachers:    make(map[int]*teacher.Teacher),
		students:    make(map[int]*student.Student),
		assignments: make(map[int]*assignment.Assignment),
		grades:      make(map[int]*grade.Grade),
	}
	return db, nil
}

func (db *DB) nextPK() int {
	db.nextID++
	return db.nextID
}
