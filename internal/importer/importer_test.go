// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package importer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/erms-go/internal/model"
)

type fakeBulkCreator struct {
	got []model.ParticipantFields
	err error
}

func (f *fakeBulkCreator) BulkCreate(_ context.Context, list []model.ParticipantFields) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.got = list
	return len(list), nil
}

func testImporter(bc BulkCreator) *Importer {
	return New(bc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFoldHeader(t *testing.T) {
	cases := map[string]string{
		"Name":          "name",
		"  E-Mail  ":    "e_mail",
		"Collège":       "college",
		"Group   Name":  "group_name",
		"Event ID":      "event_id",
		"PHONE_NUMBER_": "phone_number",
	}
	for in, want := range cases {
		assert.Equal(t, want, foldHeader(in), "foldHeader(%q)", in)
	}
}

func TestCanonicalColumn_EventAliases(t *testing.T) {
	for _, h := range []string{"Event ID", "event-id", "EventId", "EVENT_ID", "Target Event Id"} {
		assert.Equal(t, ColEventID, canonicalColumn(foldHeader(h)), "header %q", h)
	}
	assert.Equal(t, "", canonicalColumn(foldHeader("Identity")))
}

func TestReadCSV(t *testing.T) {
	csvData := "\uFEFFName,E-Mail,Phone Number,College,Group,Event ID,Ignored\n" +
		"Asha Rao,asha@example.com,9876543210,NIT,Alpha,1,x\n" +
		"Ravi Kumar,,,,,2,\n"

	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Asha Rao", rows[0][ColName])
	assert.Equal(t, "asha@example.com", rows[0][ColEmail])
	assert.Equal(t, "9876543210", rows[0][ColPhone])
	assert.Equal(t, "NIT", rows[0][ColCollege])
	assert.Equal(t, "Alpha", rows[0][ColGroupName])
	assert.Equal(t, "1", rows[0][ColEventID])
	_, hasIgnored := rows[0]["ignored"]
	assert.False(t, hasIgnored)

	assert.Equal(t, "", rows[1][ColEmail])
	assert.Equal(t, "2", rows[1][ColEventID])
}

func TestReadCSV_Rejections(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ReadCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestValidate_RowNumbersAndIssues(t *testing.T) {
	imp := testImporter(&fakeBulkCreator{})
	rows := []Row{
		{ColName: "Good", ColEventID: "1"},
		{ColName: "", ColEventID: "1"},
		{ColName: "No Event"},
		{ColName: "Bad Event", ColEventID: "abc"},
		{ColName: "Unknown Event", ColEventID: "7"},
		{ColName: "Warned", ColEventID: "2", ColEmail: "not-an-email", ColPhone: "12345"},
	}

	report := imp.Validate(rows, []int64{2, 1})
	assert.False(t, report.OK())
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 6, report.Rows)

	require.Len(t, report.Errors, 4)
	// First data row is file row 2.
	assert.Equal(t, 3, report.Errors[0].FileRow)
	assert.Contains(t, report.Errors[0].Message, "missing name")
	assert.Equal(t, 4, report.Errors[1].FileRow)
	assert.Contains(t, report.Errors[1].Message, "valid ids: 1, 2")
	assert.Equal(t, 5, report.Errors[2].FileRow)
	assert.Contains(t, report.Errors[2].Message, "not an integer")
	assert.Equal(t, 6, report.Errors[3].FileRow)
	assert.Contains(t, report.Errors[3].Message, "unknown event id 7")

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, 7, report.Warnings[0].FileRow)
	assert.Contains(t, report.Warnings[0].Message, "email")
	assert.Equal(t, 7, report.Warnings[1].FileRow)
	assert.Contains(t, report.Warnings[1].Message, "phone")
}

func TestValidate_WarningsDoNotBlock(t *testing.T) {
	imp := testImporter(&fakeBulkCreator{})
	report := imp.Validate([]Row{
		{ColName: "Asha", ColEventID: "1", ColEmail: "broken", ColPhone: "12"},
	}, []int64{1})

	assert.True(t, report.OK())
	assert.Len(t, report.Warnings, 2)
}

func TestApply(t *testing.T) {
	bc := &fakeBulkCreator{}
	imp := testImporter(bc)

	rows := []Row{
		{ColName: "Asha", ColEventID: "1", ColEmail: "asha@example.com"},
		{ColName: "Ravi", ColEventID: "1"},
	}

	report, err := imp.Apply(context.Background(), rows, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)

	require.Len(t, bc.got, 2)
	assert.Equal(t, "Asha", bc.got[0].Name)
	assert.Equal(t, int64(1), bc.got[0].EventID)
	assert.True(t, bc.got[0].Email.Valid)
	// Absent optional fields stay NULL.
	assert.False(t, bc.got[1].Email.Valid)
	assert.False(t, bc.got[1].College.Valid)
}

func TestApply_FailsClosedOnValidation(t *testing.T) {
	bc := &fakeBulkCreator{}
	imp := testImporter(bc)

	report, err := imp.Apply(context.Background(), []Row{{ColName: "", ColEventID: "1"}}, []int64{1})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.False(t, report.OK())
	assert.Empty(t, bc.got)
}
