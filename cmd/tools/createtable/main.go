package main

import (
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required (needs multiStatements=true)")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS users (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  password_hash VARCHAR(255) NOT NULL,
	  role VARCHAR(32) NOT NULL DEFAULT 'student',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  deleted_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_users_email (email),
	  KEY ix_users_deleted_at (deleted_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS api_tokens (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NOT NULL,
	  token_hash CHAR(64) NOT NULL,
	  expires_at DATETIME(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_api_tokens_hash (token_hash),
	  KEY ix_api_tokens_user_id (user_id),
	  CONSTRAINT fk_api_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS courses (
	  id CHAR(36) NOT NULL,
	  title VARCHAR(255) NOT NULL,
	  instructor_id CHAR(36) NOT NULL,
	  price DECIMAL(10,2) NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'USD',
	  status VARCHAR(32) NOT NULL DEFAULT 'draft',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  deleted_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  KEY ix_courses_instructor_id (instructor_id),
	  KEY ix_courses_deleted_at (deleted_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS purchases (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NOT NULL,
	  course_id CHAR(36) NOT NULL,
	  amount DECIMAL(10,2) NOT NULL,
	  currency CHAR(3) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  payment_method VARCHAR(64) NOT NULL,
	  payment_order_id VARCHAR(128) NULL,
	  payment_transaction_id VARCHAR(128) NULL,
	  refund_transaction_id VARCHAR(128) NULL,
	  active_key VARCHAR(80) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  deleted_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  KEY ix_purchases_user_course (user_id, course_id),
	  UNIQUE KEY ux_purchases_payment_order (payment_order_id),
	  UNIQUE KEY ux_purchases_active_key (active_key),
	  KEY ix_purchases_deleted_at (deleted_at),
	  CONSTRAINT fk_purchases_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT,
	  CONSTRAINT fk_purchases_course FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS provider_events (
	  id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON NOT NULL,
	  received_at DATETIME(3) NOT NULL,
	  processed_at DATETIME(3) NULL,
	  process_error VARCHAR(255) NULL,
	  PRIMARY KEY (id),
	  KEY ix_provider_events_provider (provider),
	  KEY ix_provider_events_event_id (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if err := db.Exec(sql).Error; err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	log.Println("Tables created.")
}
