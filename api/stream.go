package api

import "time"

// MsgType is a message type for pipeline progress events
type MsgType string

// Progress event type constants
const (
	StartBatchMsg       MsgType = "batch_start"
	StartSubmissionMsg  MsgType = "submission_start"
	FinishStagingMsg    MsgType = "staging_finish"
	StartBuildMsg       MsgType = "build_start"
	CompileErrorMsg     MsgType = "compile_error"
	FinishTestsMsg      MsgType = "tests_finish"
	SkipSubmissionMsg   MsgType = "submission_skip"
	FinishSubmissionMsg MsgType = "submission_finish"
	FinishBatchMsg      MsgType = "batch_finish"
)

// Output size constraints for published events
const (
	MaxRunDataHeight = 40
	MaxRunDataWidth  = 80
)

// Header is the common header for all progress events
type Header struct {
	RunID   string  `json:"run_id"`
	MsgType MsgType `json:"msg_type"`
}

// StartBatch is sent once the manifest has been read
type StartBatch struct {
	Header
	Task        string `json:"task"`
	Submissions int    `json:"submissions"`
	StartedTime string `json:"started_time"`
}

// StartSubmission is sent before a submission is staged
type StartSubmission struct {
	Header
	StudentID string `json:"student_id"`
}

// FinishStaging is sent after canonical tests and libraries were copied in
type FinishStaging struct {
	Header
	StudentID   string   `json:"student_id"`
	MovedTests  []string `json:"moved_tests"`
	CopiedTests []string `json:"copied_tests"`
	CopiedLibs  []string `json:"copied_libs"`
}

// StartBuild is sent before compilation begins
type StartBuild struct {
	Header
	StudentID string `json:"student_id"`
}

// CompileError is sent when the compiler rejected the submission
type CompileError struct {
	Header
	StudentID string   `json:"student_id"`
	RunData   *RunData `json:"run_data"`
}

// FinishTests is sent when the test runner exited
type FinishTests struct {
	Header
	StudentID string   `json:"student_id"`
	RunData   *RunData `json:"run_data"`
}

// SkipSubmission is sent when a submission could not be processed
type SkipSubmission struct {
	Header
	StudentID string `json:"student_id"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// FinishSubmission is sent when the grading record was written
type FinishSubmission struct {
	Header
	StudentID  string `json:"student_id"`
	RecordPath string `json:"record_path"`
}

// FinishBatch is sent after the last submission
type FinishBatch struct {
	Header
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

func newHeader(runID string, msgType MsgType) Header {
	return Header{RunID: runID, MsgType: msgType}
}

func NewStartBatch(runID string, task string, submissions int) StartBatch {
	return StartBatch{
		Header:      newHeader(runID, StartBatchMsg),
		Task:        task,
		Submissions: submissions,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewStartSubmission(runID string, studentID string) StartSubmission {
	return StartSubmission{Header: newHeader(runID, StartSubmissionMsg), StudentID: studentID}
}

func NewFinishStaging(runID string, studentID string, moved, tests, libs []string) FinishStaging {
	return FinishStaging{
		Header:      newHeader(runID, FinishStagingMsg),
		StudentID:   studentID,
		MovedTests:  moved,
		CopiedTests: tests,
		CopiedLibs:  libs,
	}
}

func NewStartBuild(runID string, studentID string) StartBuild {
	return StartBuild{Header: newHeader(runID, StartBuildMsg), StudentID: studentID}
}

func NewCompileError(runID string, studentID string, data *RunData) CompileError {
	return CompileError{Header: newHeader(runID, CompileErrorMsg), StudentID: studentID, RunData: data}
}

func NewFinishTests(runID string, studentID string, data *RunData) FinishTests {
	return FinishTests{Header: newHeader(runID, FinishTestsMsg), StudentID: studentID, RunData: data}
}

func NewSkipSubmission(runID string, studentID string, stage string, errMsg string) SkipSubmission {
	return SkipSubmission{
		Header:    newHeader(runID, SkipSubmissionMsg),
		StudentID: studentID,
		Stage:     stage,
		Error:     errMsg,
	}
}

func NewFinishSubmission(runID string, studentID string, recordPath string) FinishSubmission {
	return FinishSubmission{
		Header:     newHeader(runID, FinishSubmissionMsg),
		StudentID:  studentID,
		RecordPath: recordPath,
	}
}

func NewFinishBatch(runID string, processed int, failed int) FinishBatch {
	return FinishBatch{Header: newHeader(runID, FinishBatchMsg), Processed: processed, Failed: failed}
}
