package handler

import (
	"context"

	"github.com/noah-isme/academic-records-api/internal/dto"
)

type studentServiceMock struct {
	listResp  []dto.StudentResponse
	getResp   *dto.StudentResponse
	createReq dto.StudentRequest
	updateID  string
	deleteID  string
	err       error

	transcriptFormat string
}

func (m *studentServiceMock) List(ctx context.Context) ([]dto.StudentResponse, error) {
	return m.listResp, m.err
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	return m.getResp, m.err
}

func (m *studentServiceMock) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	m.createReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.StudentResponse{ID: "stu-1", Name: req.Name, Email: req.Email}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req dto.StudentRequest) (*dto.StudentResponse, error) {
	m.updateID = id
	if m.err != nil {
		return nil, m.err
	}
	return &dto.StudentResponse{ID: id, Name: req.Name, Email: req.Email}, nil
}

func (m *studentServiceMock) Transcript(ctx context.Context, id, format string) (*dto.TranscriptFile, error) {
	m.transcriptFormat = format
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TranscriptFile{Filename: "transcript-" + id + ".csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Course,Enrolled On,Grade\n")}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	m.deleteID = id
	return m.err
}

type enrollmentServiceMock struct {
	lastFilter dto.EnrollmentFilter
	enrollReq  dto.EnrollRequest
	gradeID    string
	gradeReq   dto.GradeRequest
	clearedID  string
	resp       *dto.EnrollmentResponse
	err        error
}

func (m *enrollmentServiceMock) List(ctx context.Context, filter dto.EnrollmentFilter) ([]dto.EnrollmentResponse, error) {
	m.lastFilter = filter
	return []dto.EnrollmentResponse{}, m.err
}

func (m *enrollmentServiceMock) Get(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	return m.resp, m.err
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	m.enrollReq = req
	return m.resp, m.err
}

func (m *enrollmentServiceMock) Grade(ctx context.Context, id string, req dto.GradeRequest) (*dto.EnrollmentResponse, error) {
	m.gradeID = id
	m.gradeReq = req
	return m.resp, m.err
}

func (m *enrollmentServiceMock) ClearGrade(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	m.clearedID = id
	return m.resp, m.err
}

func (m *enrollmentServiceMock) Unenroll(ctx context.Context, id string) error {
	return m.err
}
