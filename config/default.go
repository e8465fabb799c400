package config

// DefaultConfigYAML 嵌入的默认配置
// 外部配置文件与 PORTAL_* 环境变量可逐项覆盖
var DefaultConfigYAML = []byte(`server:
  port: ":8080"
  mode: "debug"
  base_url: "http://localhost:8080"

database:
  host: "127.0.0.1"
  port: "3306"
  username: "root"
  password: ""
  dbname: "studyportal"
  charset: "utf8mb4"

jwt:
  secret: "studyportal-dev-secret-change-me"
  expire_hours: 24

storage:
  driver: "local"
  bucket: "study-materials"
  notes_dir: "data/notes"

admin:
  emails:
    - "admin101@gmail.com"

email:
  enabled: false
  host: "smtp.gmail.com"
  port: 587
  username: ""
  password: ""
  from: "StudyPortal"

support:
  email: "support101@gmail.com"
`)
