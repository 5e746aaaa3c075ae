// Package exporter writes the files users download: the user list
// workbook and the duty-schedule import template.
package exporter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

const (
	usersSheet    = "Người dùng"
	minColWidth   = 12
	noGrantMarker = "-"
)

// UsersFilename returns the download name of the users workbook.
func UsersFilename(now time.Time) string {
	return "danh-sach-nguoi-dung-" + now.Format("2006-01-02") + ".xlsx"
}

// UsersHeader returns the column titles of the users workbook.
func UsersHeader() []string {
	h := []string{"STT", "Họ và tên", "Tên đăng nhập", "Số điện thoại", "Email", "Vai trò", "Lớp"}
	for _, f := range model.Features {
		h = append(h, f.Label())
	}
	return h
}

// UsersRows flattens users into workbook rows, one per user, in input order.
func UsersRows(users []model.User, matrix model.PermissionMatrix) [][]string {
	rows := make([][]string, 0, len(users))
	for i, u := range users {
		row := []string{
			strconv.Itoa(i + 1),
			u.FullName,
			u.LoginIdentifier(),
			u.Phone,
			u.Email,
			strings.Join(u.Roles.Labels(), ", "),
			model.ClassName(u.ClassID),
		}
		grants := matrix[u.ID]
		for _, f := range model.Features {
			labels := grants[f].ActionLabels()
			if len(labels) == 0 {
				row = append(row, noGrantMarker)
				continue
			}
			row = append(row, strings.Join(labels, ", "))
		}
		rows = append(rows, row)
	}
	return rows
}

// ColumnWidth is the width of a column with the given header.
func ColumnWidth(header string) float64 {
	return float64(max(utf8.RuneCountInString(header), minColWidth))
}

// UsersWorkbook renders the users export as xlsx bytes.
func UsersWorkbook(users []model.User, matrix model.PermissionMatrix) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), usersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := UsersHeader()
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, row := range UsersRows(users, matrix) {
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	for i, h := range header {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(usersSheet, col, col, ColumnWidth(h)); err != nil {
			return nil, fmt.Errorf("set width of %s: %w", col, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(usersSheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
