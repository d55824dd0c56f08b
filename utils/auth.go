package utils

import (
	"fmt"
	"time"

	"github.com/BerniceZTT/lead_end/models"

	"github.com/dgrijalva/jwt-go"
)

var jwtSecret = []byte("your-secret-key")

// SetJWTSecret 设置JWT密钥
func SetJWTSecret(key string) {
	if key != "" {
		jwtSecret = []byte(key)
	}
}

// GenerateToken 生成JWT令牌
func GenerateToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":       user.ID.Hex(),
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(time.Hour * 24 * 30).Unix(), // 30天有效期
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		Logger.Error().Err(err).Msg("生成token失败")
		return "", err
	}

	return tokenString, nil
}

// ParseToken 解析和验证JWT令牌
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	// 验证token并提取claims
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("无效的token")
}

// HasPermission 检查角色对资源的操作权限（路由级粗粒度校验，
// 细粒度的线索可见范围由 service 层的权限解析器负责）
func HasPermission(role models.UserRole, resource string, action string) bool {
	// 管理员拥有所有权限
	if role == models.UserRoleADMIN {
		return true
	}

	permissions := map[models.UserRole]map[string][]string{
		models.UserRoleTEAM_LEAD: {
			"leads":         {"read", "create", "update", "assign", "escalate"},
			"followUps":     {"read", "create", "update"},
			"notifications": {"read", "update"},
		},
		models.UserRoleTEAM_MEMBER: {
			"leads":         {"read", "update"},
			"followUps":     {"read", "create", "update"},
			"notifications": {"read", "update"},
		},
	}

	if resourceActions, exists := permissions[role]; exists {
		if actions, hasResource := resourceActions[resource]; hasResource {
			for _, a := range actions {
				if a == action {
					return true
				}
			}
		}
	}

	return false
}
