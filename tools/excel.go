package tools

import (
	"bytes"
	"reflect"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type column struct {
	index  []int
	header string
}

// columns 按 excel 标签收集导出列，匿名嵌入的结构体会展开
func columns(t reflect.Type, parent []int) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		idx := append(append([]int(nil), parent...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			cols = append(cols, columns(sf.Type, idx)...)
			continue
		}
		tag := sf.Tag.Get("excel")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = sf.Name
		}
		cols = append(cols, column{index: idx, header: tag})
	}
	return cols
}

// WriteSheet 把结构体切片写成一个工作表，第一行是表头。没有数据时只写表头。
func WriteSheet[T any](f *excelize.File, sheet string, rows []T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return errors.Errorf("%s 不是结构体", t)
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.WithStack(err)
	}

	cols := columns(t, nil)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.WithStack(err)
	}

	line := 2
	for _, row := range rows {
		v := reflect.ValueOf(row)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		values := make([]any, len(cols))
		for i, c := range cols {
			fv := v.FieldByIndex(c.index)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					values[i] = ""
					continue
				}
				fv = fv.Elem()
			}
			values[i] = fv.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.WithStack(err)
		}
		line++
	}
	return nil
}

// Workbook 新建工作簿交给 build 填充，删除默认的空 Sheet1 后返回 xlsx 内容
func Workbook(build func(f *excelize.File) error) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := build(f); err != nil {
		return nil, err
	}
	if f.SheetCount > 1 {
		if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}
