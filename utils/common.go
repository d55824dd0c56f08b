package utils

import (
	"encoding/json"
	"fmt"

	"github.com/BerniceZTT/lead_end/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// GetActor 从请求上下文中解析当前操作人
func GetActor(c *gin.Context) (*models.Actor, error) {
	currentUser, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("GetActor 未授权访问")
	}

	// 处理不同类型的 claims
	var claims map[string]interface{}
	switch v := currentUser.(type) {
	case jwt.MapClaims:
		claims = make(map[string]interface{})
		for key, val := range v {
			claims[key] = val
		}
	case map[string]interface{}:
		claims = v
	default:
		// 尝试通过 JSON 序列化/反序列化转换
		data, err := json.Marshal(currentUser)
		if err != nil {
			return nil, fmt.Errorf("序列化用户信息失败: %v", err)
		}
		if err := json.Unmarshal(data, &claims); err != nil {
			return nil, fmt.Errorf("反序列化用户信息失败: %v", err)
		}
	}

	id, ok := claims["id"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户ID")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户角色")
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户名")
	}

	return &models.Actor{
		ID:       id,
		Username: username,
		Role:     models.UserRole(role),
	}, nil
}

// NormalizeRef 把空字符串的可选引用规范化为"缺省"
// 前端对可选引用字段存在 "" / null / 不传 三种写法，统一在入口处抹平
func NormalizeRef(id string) string {
	if id == "null" || id == "undefined" {
		return ""
	}
	return id
}
