package render

// VertexShader expands the instance record into the model matrix and the
// atlas region the base UVs are mapped into.
const VertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aUV;
layout (location = 2) in vec3 aNormal;
layout (location = 3) in mat4 aModel;
layout (location = 7) in vec2 aUVOffset;
layout (location = 8) in vec2 aUVScale;

uniform mat4 view;
uniform mat4 projection;

out vec2 vUV;
out vec3 vNormal;

void main() {
    vUV = aUVOffset + aUV * aUVScale;
    vNormal = mat3(aModel) * aNormal;
    gl_Position = projection * view * aModel * vec4(aPos, 1.0);
}
`

const FragmentShader = `#version 410 core
in vec2 vUV;
in vec3 vNormal;

uniform sampler2D atlas;

out vec4 FragColor;

const vec3 lightDir = normalize(vec3(0.4, 1.0, 0.3));

void main() {
    vec4 texel = texture(atlas, vUV);
    if (texel.a < 0.1) {
        discard;
    }
    float diffuse = max(dot(normalize(vNormal), lightDir), 0.0);
    FragColor = vec4(texel.rgb * (0.45 + 0.55 * diffuse), texel.a);
}
`
