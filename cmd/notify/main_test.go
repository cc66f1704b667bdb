package main

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/stretchr/testify/require"
)

// 邮件正文用消息反序列化后的 map 渲染，字段名是 json 标签里的小写驼峰
func TestMailTemplatesRender(t *testing.T) {
	cases := []struct {
		file string
		data map[string]any
	}{
		{
			file: "../../templates/new_account_email.html",
			data: map[string]any{
				"fullName": "张三",
				"username": "zhangsan",
				"password": "secret123",
			},
		},
		{
			file: "../../templates/run_completed_email.html",
			data: map[string]any{
				"fullName":     "张三",
				"planName":     "演示计划",
				"finalBalance": 1234.5,
				"workDays":     8,
				"violations":   0,
			},
		},
		{
			file: "../../templates/run_failed_email.html",
			data: map[string]any{
				"fullName": "张三",
				"planName": "演示计划",
				"reason":   "第 3 天的手动约束使用了不存在的班次类型",
			},
		},
	}

	for _, tc := range cases {
		tmpl, err := template.ParseFiles(tc.file)
		require.NoError(t, err, tc.file)

		var buf bytes.Buffer
		require.NoError(t, tmpl.Execute(&buf, tc.data), tc.file)
		require.NotEmpty(t, buf.String())
		// 模板引用了 map 中不存在的字段时会渲染出 <no value>
		require.NotContains(t, buf.String(), "<no value>", tc.file)
	}
}
